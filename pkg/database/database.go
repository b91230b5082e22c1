package database

import (
	"devday_quiz_backend/internal/config"
	"devday_quiz_backend/internal/model"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.Session{},
		&model.Team{},
		&model.Submission{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// SeedAdminUsers creates an account for each configured admin email that
// does not exist yet. Existing accounts are left untouched, so password
// changes survive restarts.
func SeedAdminUsers(db *gorm.DB, cfg *config.AdminConfig) error {
	if len(cfg.Emails) == 0 {
		return nil
	}

	password := cfg.BootstrapPassword
	if password == "" {
		password = "changeme"
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for _, email := range cfg.Emails {
		var count int64
		if err := db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		user := &model.User{
			Name:     email,
			Email:    email,
			Password: string(hashed),
			Role:     model.Admin,
		}
		if err := db.Create(user).Error; err != nil {
			return err
		}
		log.Printf("Seeded admin account %s", email)
	}
	return nil
}
