package middleware

import (
	"devday_quiz_backend/internal/config"
	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

// AuthMiddleware requires a valid admin/host JWT.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// RoleMiddleware restricts a route to the given roles. Admins pass every
// role check.
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			if user.Role == model.Admin || user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionAccessMiddleware admits either an authenticated host/admin or a
// team whose token is pinned to the session in the route. Hosts land in
// the context under "user", teams under "team".
func SessionAccessMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret); err == nil {
				c.Set("user", claims)
				c.Next()
				return
			}
		}

		teamToken := c.GetHeader("X-Team-Token")
		if teamToken == "" {
			teamToken = c.Query("teamToken")
		}
		if teamToken != "" {
			if claims, err := util.ParseTeamToken(teamToken, cfg.JWT.Secret); err == nil {
				if sessionID := c.Param("id"); sessionID == "" || sessionID == claims.SessionID {
					c.Set("team", claims)
					c.Next()
					return
				}
			}
		}

		util.Unauthorized(c)
		c.Abort()
	}
}

// TeamTokenMiddleware requires a valid team capability token and pins it
// to the session named in the route.
func TeamTokenMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("X-Team-Token")
		if tokenString == "" {
			tokenString = c.Query("teamToken")
		}
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseTeamToken(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if sessionID := c.Param("id"); sessionID != "" && sessionID != claims.SessionID {
			util.Forbidden(c)
			c.Abort()
			return
		}

		c.Set("team", claims)
		c.Next()
	}
}
