package app

import (
	"devday_quiz_backend/docs"
	"devday_quiz_backend/internal/config"
	"devday_quiz_backend/internal/middleware"
	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// Live updates: listen-only, session existence is the only gate.
	router.GET("/ws/sessions/:id", c.live.Subscribe)

	a.registerPublicRoutes(router, c)
	a.registerParticipantRoutes(router, c, cfg)
	a.registerHostRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/login", c.auth.Login)

		// Read-only session surface for the projector and joining teams.
		public.GET("/sessions", c.session.List)
		public.GET("/sessions/:id", c.session.Get)
		public.GET("/sessions/:id/question", c.session.CurrentQuestion)
		public.GET("/sessions/:id/leaderboard", c.team.Leaderboard)
		public.POST("/sessions/:id/teams", c.team.Join)
	}
}

func (a *App) registerParticipantRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	// Hosts and teams share the questions view; the controller strips
	// answer keys for team callers.
	shared := router.Group("/api")
	shared.Use(middleware.SessionAccessMiddleware(cfg))
	{
		shared.GET("/sessions/:id/questions", c.session.Questions)
	}

	participant := router.Group("/api")
	participant.Use(middleware.TeamTokenMiddleware(cfg))
	{
		participant.POST("/sessions/:id/questions/:questionId/submissions", c.submission.Submit)
	}
}

func (a *App) registerHostRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	host := router.Group("/api")
	host.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Host))
	{
		host.GET("/auth/me", c.auth.Me)

		host.POST("/questions", c.question.Create)
		host.GET("/questions", c.question.List)
		host.GET("/questions/:id", c.question.Get)
		host.PUT("/questions/:id", c.question.Update)
		host.DELETE("/questions/:id", c.question.Delete)
		host.POST("/questions/images", c.question.UploadImage)

		host.POST("/sessions", c.session.Create)
		host.DELETE("/sessions/:id", c.session.Delete)
		host.POST("/sessions/:id/activate", c.session.Activate)
		host.POST("/sessions/:id/advance", c.session.Advance)
		host.POST("/sessions/:id/complete", c.session.Complete)

		host.GET("/sessions/:id/submissions", c.submission.List)
		host.GET("/submissions/:id", c.submission.Get)
		host.POST("/submissions/:id/mark", c.scoring.Mark)
		host.POST("/sessions/:id/concise-bonus", c.scoring.ConciseBonus)
		host.POST("/sessions/:id/finalize", c.scoring.Finalize)
	}

	admin := router.Group("/api")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/auth/register", c.auth.Register)
	}
}
