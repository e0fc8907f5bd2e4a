package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "ultra-eval/docs" // This is for Swagger
	"ultra-eval/internal/auth"
	"ultra-eval/internal/config"
	"ultra-eval/internal/database"
	"ultra-eval/internal/email"
	"ultra-eval/internal/handlers"
	"ultra-eval/internal/logger"
	"ultra-eval/internal/middleware"
	"ultra-eval/internal/repository"
	"ultra-eval/internal/service"
	"ultra-eval/internal/storage"
	"ultra-eval/internal/vault"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Ultra Eval API
// @version 1.0
// @description Backend API for the Ultra Eval student accomplishment tracking platform

// @contact.name API Support
// @contact.email support@ultraeval.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Overlay provider credentials from Vault when enabled
	if cfg.Vault.Enabled {
		vaultClient, err := vault.NewClient(&cfg.Vault)
		if err != nil {
			slog.Error("Failed to initialize Vault client", "error", err)
			os.Exit(1)
		}
		if err := vaultClient.Health(context.Background()); err != nil {
			slog.Error("Vault is not available", "error", err)
			os.Exit(1)
		}

		secrets, err := vaultClient.GetProviderSecrets(context.Background(), cfg.Vault.SecretPath)
		if err != nil {
			slog.Error("Failed to read provider secrets from Vault", "error", err)
			os.Exit(1)
		}
		if secrets.OpenAIAPIKey != "" {
			cfg.OpenAI.APIKey = secrets.OpenAIAPIKey
		}
		if secrets.SMTPPassword != "" {
			cfg.Email.SMTPPassword = secrets.SMTPPassword
		}

		slog.Info("Provider credentials loaded from Vault", "vault_addr", cfg.Vault.Address)
	}

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	studentRepo := repository.NewStudentRepository(db.DB)
	reportRepo := repository.NewReportRepository(db.DB)

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	emailService := email.NewService(&cfg.Email)
	evaluationService := service.NewEvaluationService(&cfg.OpenAI, cfg.Storage.PublicURL)
	submissionService := service.NewSubmissionService(studentRepo, reportRepo, evaluationService, emailService)

	attachmentStore, err := storage.NewS3Storage(&cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize attachment storage", "error", err)
		os.Exit(1)
	}

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	adminMw := middleware.NewAdminMiddleware(&cfg.Admin)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)

	// Initialize handlers
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	studentHandler := handlers.NewStudentHandler(studentRepo, reportRepo)
	adminHandler := handlers.NewAdminHandler(studentRepo, reportRepo)
	uploadHandler := handlers.NewUploadHandler(attachmentStore)

	// Setup router
	mux := http.NewServeMux()

	// Student routes
	mux.Handle("POST /api/v1/reports",
		authMw.Authenticate(http.HandlerFunc(submissionHandler.SubmitReport)))
	mux.Handle("GET /api/v1/leaderboard",
		authMw.Authenticate(http.HandlerFunc(studentHandler.GetLeaderboard)))
	mux.Handle("GET /api/v1/students/{id}",
		authMw.Authenticate(http.HandlerFunc(studentHandler.GetProfile)))
	mux.Handle("PUT /api/v1/students/{id}",
		authMw.Authenticate(http.HandlerFunc(studentHandler.UpdateProfile)))
	mux.Handle("GET /api/v1/students/{id}/reports",
		authMw.Authenticate(http.HandlerFunc(studentHandler.ListReports)))
	mux.Handle("POST /api/v1/uploads",
		authMw.Authenticate(http.HandlerFunc(uploadHandler.Upload)))

	// Admin routes
	mux.Handle("GET /api/v1/admin/students",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				http.HandlerFunc(adminHandler.ListStudents),
			),
		),
	)
	mux.Handle("POST /api/v1/admin/students",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				http.HandlerFunc(adminHandler.CreateStudent),
			),
		),
	)
	mux.Handle("PUT /api/v1/admin/students/{id}/elo",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				http.HandlerFunc(adminHandler.OverrideElo),
			),
		),
	)
	mux.Handle("PUT /api/v1/admin/reports/{id}",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				http.HandlerFunc(adminHandler.UpdateReport),
			),
		),
	)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`)); err != nil {
				slog.Error("Failed to write health check response", "error", err)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`)); err != nil {
			slog.Error("Failed to write health check response", "error", err)
		}
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
