package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/walkup/printq/internal/api"
	"github.com/walkup/printq/internal/api/handlers"
	"github.com/walkup/printq/internal/api/middleware"
	"github.com/walkup/printq/internal/config"
	"github.com/walkup/printq/internal/db"
	"github.com/walkup/printq/internal/files"
	"github.com/walkup/printq/internal/logging"
	"github.com/walkup/printq/internal/sweeper"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	jobStore := db.NewJobStore(database)
	userStore := db.NewUserStore(database)
	settingsStore := db.NewSettingsStore(database)

	if err := seedAdminUser(userStore, cfg.Auth, logger); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	fileStore, err := files.NewStore(cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize file store: %w", err)
	}

	auth, err := middleware.NewAuthMiddleware(userStore, settingsStore, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}

	sweep := sweeper.New(jobStore, fileStore, sweeper.Config{
		Interval: cfg.Retention.SweepInterval,
		MaxAge:   cfg.Retention.MaxFileAge,
	}, logger)
	sweep.Start()
	defer sweep.Stop()

	gin.SetMode(gin.ReleaseMode)
	jobHandler := handlers.NewJobHandler(jobStore, fileStore, cfg.Storage.MaxUploadBytes, logger)
	router := api.NewRouter(auth, jobHandler, cfg.Storage.MaxUploadBytes)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	logger.Info("print queue server running",
		slog.String("address", addr),
		slog.String("upload_dir", cfg.Storage.UploadDir),
		slog.Duration("sweep_interval", cfg.Retention.SweepInterval),
		slog.Duration("max_file_age", cfg.Retention.MaxFileAge),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// seedAdminUser creates the operator account on first start. Existing
// accounts are never touched; passwords are stored as bcrypt hashes only.
func seedAdminUser(users *db.UserStore, cfg config.AuthConfig, logger *slog.Logger) error {
	ctx := context.Background()

	_, err := users.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if cfg.AdminPassword == "" {
		return fmt.Errorf("admin user %q does not exist and no admin password is configured", cfg.AdminUsername)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := &db.User{Username: cfg.AdminUsername, PasswordHash: string(hash)}
	if err := users.Create(ctx, user); err != nil {
		return err
	}

	logger.Info("seeded operator account", slog.String("username", user.Username))
	return nil
}
