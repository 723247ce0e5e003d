package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agency-contact-backend/config"
	"agency-contact-backend/internal/delivery/http/middleware"
	v1 "agency-contact-backend/internal/delivery/http/v1"
	"agency-contact-backend/internal/domain"
	"agency-contact-backend/internal/usecase"
	"agency-contact-backend/pkg/email"
	"agency-contact-backend/pkg/logger"
	"agency-contact-backend/pkg/ratelimit"
	"agency-contact-backend/pkg/redis"
	"agency-contact-backend/pkg/security"
	"agency-contact-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand(loadConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), loadConfig())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.GinMode)
	log := logger.Log
	log.Info("Starting contact backend", "port", cfg.Port, "transport", cfg.MailTransport)

	env := "development"
	if cfg.IsProduction() {
		env = "production"
	}
	sl := security.InitSecurityLogger("agency-contact-backend", env)
	defer func() { _ = sl.Sync() }()

	// 1. Rate limit stores
	rlConfig := ratelimit.Config{
		Limit:           cfg.ContactRateLimit,
		Window:          cfg.ContactRateWindow,
		CleanupInterval: 5 * time.Minute,
	}
	memoryStore := ratelimit.NewMemoryStore(rlConfig)
	defer memoryStore.Stop()

	var primary ratelimit.Store
	redisClient, err := redis.New(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword})
	switch {
	case errors.Is(err, redis.ErrNotConfigured):
		log.Info("Redis not configured, rate limiting in memory (single instance only)")
	case err != nil:
		log.Warn("Redis unavailable, rate limiting in memory", "error", err)
	default:
		defer redisClient.Close()
		primary = ratelimit.NewRedisStore(redisClient, rlConfig)
		log.Info("Rate limiting backed by Redis")
	}

	contactLimit := middleware.ContactRateLimitConfig(primary, memoryStore)
	contactLimit.FailClosed = cfg.RateLimitFailClosed

	flood := ratelimit.NewBurstLimiter(ratelimit.BurstConfig{Rate: cfg.APIBurstRate, Burst: cfg.APIBurstLimit})
	defer flood.Stop()

	// 2. Mail transport
	var dispatcher domain.MailDispatcher
	transport, err := email.NewTransport(cfg, log)
	switch {
	case errors.Is(err, domain.ErrMailNotConfigured):
		log.Warn("Mail transport not fully configured - contact form will be unavailable")
	case err != nil:
		return err
	default:
		dispatcher = transport
		defer transport.Close()

		verifyCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		if err := transport.Verify(verifyCtx); err != nil {
			// keep serving; the session is redialed on the first send
			log.Error("Mail transport verification failed", "error", err)
		} else {
			log.Info("Mail transport verified")
		}
		cancel()
	}

	// 3. Usecases
	contactUC := usecase.NewContactUsecase(usecase.ContactDeps{
		Dispatcher:   dispatcher,
		Composer:     usecase.NewNotificationComposer(cfg.SMTPFromEmail, cfg.SMTPFromName, cfg.ContactEmailTo),
		Validate:     validation.New(),
		RetryCount:   cfg.MailRetryCount,
		RetryBackoff: cfg.MailRetryBackoff,
		Logger:       log,
	})
	healthUC := usecase.NewHealthUsecase(time.Now)

	// 4. Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:        contactUC,
		HealthUC:         healthUC,
		ContactRateLimit: contactLimit,
		FloodGuard:       flood,
		Security:         sl,
		Logger:           log,
		Config:           cfg,
	})

	// 5. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		log.Error("Listen failed", "error", err)
		return err
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exiting")
	return nil
}
