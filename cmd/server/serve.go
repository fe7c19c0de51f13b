package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/handlers"
	"github.com/yukikurage/project-management-api/internal/identity"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newVerifier(ctx context.Context, cfg *config.Config) (identity.Verifier, error) {
	if cfg.TokenMode == config.TokenModeHMAC {
		slog.Warn("using HMAC development tokens")
		return identity.NewHMACVerifier(cfg.HMACSecret, cfg.HMACIssuer), nil
	}
	return identity.NewFirebaseVerifier(ctx, identity.FirebaseConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		CheckRevoked:    cfg.FirebaseCheckRevoked,
		Timeout:         cfg.VerificationTimeout,
	})
}

func runServe() error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	blobs, err := storage.NewLocalBlobStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	verifier, err := newVerifier(context.Background(), cfg)
	if err != nil {
		return err
	}

	repos := repository.New(db)
	identityService := services.NewIdentityService(repos, verifier)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(slog.Default()))
	handlers.RegisterRoutes(r, identityService, handlers.Handlers{
		Users:    handlers.NewUserHandler(identityService, services.NewUserService(repos)),
		Projects: handlers.NewProjectHandler(services.NewProjectService(repos, blobs), services.NewMembershipService(repos)),
		Tasks:    handlers.NewTaskHandler(services.NewTaskService(repos, blobs, aiService)),
		Tags:     handlers.NewTagHandler(services.NewTagService(repos), services.NewCategoryService(repos)),
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
