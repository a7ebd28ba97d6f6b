package main

import (
	"context"
	"flag"
	"time"

	"go-catalog-admin/config"
	"go-catalog-admin/internal/repository"
	"go-catalog-admin/pkg/database"
	"go-catalog-admin/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Resets an operator's password and signs out their current session.
func main() {
	envErr := godotenv.Load()
	cfg := config.LoadEnv()

	email := flag.String("email", cfg.Admin.Email, "operator email")
	password := flag.String("password", cfg.Admin.Password, "new password")
	flag.Parse()
	log := logger.New(&logger.Config{IsDevelopment: true, Encoding: "console", Level: "info", DisableStacktrace: true})
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Warn(".env file not found, relying on system env")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.ConnectDB(&cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to connect database", zap.Error(err))
	}

	userRepo := repository.NewUserRepo(db)
	user, err := userRepo.FindByEmail(ctx, *email)
	if err != nil {
		log.Fatal("User not found", zap.String("email", *email), zap.Error(err))
	}

	if err := user.SetPassword(*password); err != nil {
		log.Fatal("Failed to hash password", zap.Error(err))
	}
	if err := userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		log.Fatal("Failed to update password", zap.Error(err))
	}
	if err := userRepo.UpdateTokenVersion(ctx, user.ID, uuid.NewString()); err != nil {
		log.Fatal("Failed to rotate token version", zap.Error(err))
	}

	log.Info("Password reset", zap.String("email", *email))
}
