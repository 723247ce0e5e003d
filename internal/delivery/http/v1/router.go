package v1

import (
	"log/slog"
	"net/http"
	"time"

	"agency-contact-backend/config"
	"agency-contact-backend/internal/delivery/http/middleware"
	"agency-contact-backend/internal/delivery/http/response"
	"agency-contact-backend/internal/domain"
	"agency-contact-backend/pkg/metrics"
	"agency-contact-backend/pkg/ratelimit"
	"agency-contact-backend/pkg/security"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ContactUC        domain.ContactUsecase
	HealthUC         domain.HealthUsecase
	ContactRateLimit middleware.RateLimitConfig
	FloodGuard       *ratelimit.BurstLimiter // nil disables the flood guard
	Security         *security.SecurityLogger
	Logger           *slog.Logger
	Config           *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// ClientIP keys the rate limiter; only listed proxies may set X-Forwarded-For
	if err := r.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		deps.Logger.Error("Invalid TRUSTED_PROXIES, ignoring forwarded headers", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.AllowedOrigins)) // CORS must be first!
	r.Use(ginzap.RecoveryWithZap(deps.Security.Zap(), true))
	r.Use(ginzap.Ginzap(deps.Security.Zap(), time.RFC3339, true))
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config.IsProduction()))
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler(deps.Logger))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	NewHealthHandler(api, deps.HealthUC)

	// only the contact route is rate limited
	var contactLimits []gin.HandlerFunc
	if deps.FloodGuard != nil {
		contactLimits = append(contactLimits, middleware.FloodGuard(deps.FloodGuard))
	}
	contactLimits = append(contactLimits, middleware.RateLimitMiddleware(deps.ContactRateLimit))
	NewContactHandler(api, deps.ContactUC, deps.Security, contactLimits...)

	// Swagger
	api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Nenalezeno.")
	})

	return r
}
