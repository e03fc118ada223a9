package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "userhub/docs" // Swagger docs (generated)
	"userhub/internal/auth"
	"userhub/internal/avatar"
	"userhub/internal/config"
	"userhub/internal/database"
	"userhub/internal/email"
	httpServer "userhub/internal/http"
	"userhub/internal/logging"
	"userhub/internal/user"
)

// @title           UserHub API
// @version         1.0
// @description     User authentication service: registration with avatar upload, token-based login, and email password reset.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	userRepo := user.NewRepository(db)

	tokenMaker, err := auth.NewTokenMaker(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize token maker: %w", err)
	}

	mailer := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
	)

	avatarProcessor := avatar.NewProcessor(cfg.Upload.MaxAvatarBytes)

	authService := auth.NewService(
		userRepo,
		tokenMaker,
		mailer,
		avatarProcessor,
		logger,
		cfg.Auth.SessionTokenDuration,
		cfg.Auth.ResetTokenDuration,
	)

	authHandler := auth.NewHandler(authService, logger, cfg.Upload.MaxAvatarBytes)
	authMiddleware := auth.NewMiddleware(tokenMaker)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
