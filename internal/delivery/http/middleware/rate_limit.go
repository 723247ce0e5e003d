package middleware

import (
	"fmt"
	"strconv"
	"time"

	"agency-contact-backend/internal/domain"
	"agency-contact-backend/pkg/apperror"
	"agency-contact-backend/pkg/metrics"
	"agency-contact-backend/pkg/ratelimit"
	"agency-contact-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	ContactRateLimitMessage = "Příliš mnoho žádostí. Zkuste to prosím znovu za 15 minut."
	unavailableMessage      = "Kontaktní formulář je dočasně nedostupný."
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Name labels metrics and logs
	Name string
	// Store is consulted first (usually Redis); nil means Fallback only
	Store ratelimit.Store
	// Fallback is used when Store errors and FailClosed is false
	Fallback ratelimit.Store
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix, e.g. "rl:contact:"
	KeyPrefix string
	// Whether to fail closed (reject) when Store is unavailable
	FailClosed bool
	// Message is the body of a 429
	Message string
	// Now is the clock, time.Now when nil
	Now func() time.Time
}

// ContactRateLimitConfig returns the contact form policy: fail open onto
// the in-memory store, keyed by client IP
func ContactRateLimitConfig(store, fallback ratelimit.Store) RateLimitConfig {
	return RateLimitConfig{
		Name:      "contact",
		Store:     store,
		Fallback:  fallback,
		KeyPrefix: "rl:contact:",
		Message:   ContactRateLimitMessage,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimitMiddleware admits or rejects the request before any handler
// work happens. Uses Store when available, falls back when it errors.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Message == "" {
		config.Message = ContactRateLimitMessage
	}

	return func(c *gin.Context) {
		// nothing configured: admit without advertising a limit
		if config.Store == nil && config.Fallback == nil {
			c.Next()
			return
		}

		fullKey := config.KeyPrefix + config.KeyFunc(c)
		now := config.Now()

		decision, err := admit(c, config, fullKey, now)
		if err != nil {
			_ = c.Error(apperror.ServiceUnavailable(unavailableMessage, err))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		// Check if limit exceeded
		if !decision.Allowed {
			retryAfter := int(decision.ResetAt.Sub(now).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			metrics.RateLimitRejections.WithLabelValues(config.Name).Inc()
			security.DefaultLogger().LogRateLimitTriggered(
				c.Request.Context(),
				c.ClientIP(),
				c.GetHeader("User-Agent"),
				GetRequestID(c),
				c.FullPath(),
			)

			// ErrorHandler renders the 429
			_ = c.Error(apperror.TooManyRequests(config.Message, domain.ErrRateLimitExceeded))
			c.Abort()
			return
		}

		c.Next()
	}
}

// admit consults the primary store, then the fallback. An error means
// neither could decide and the request must not proceed.
func admit(c *gin.Context, config RateLimitConfig, key string, now time.Time) (ratelimit.Decision, error) {
	if config.Store != nil {
		decision, err := config.Store.Admit(c.Request.Context(), key, now)
		if err == nil {
			return decision, nil
		}

		metrics.RateLimitStoreErrors.WithLabelValues(config.Name).Inc()
		security.DefaultLogger().LogRateLimitDegraded(c.Request.Context(), c.ClientIP(), GetRequestID(c), err)

		if config.FailClosed || config.Fallback == nil {
			return ratelimit.Decision{}, fmt.Errorf("%s rate limit store: %w", config.Name, err)
		}
	}

	decision, err := config.Fallback.Admit(c.Request.Context(), key, now)
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("%s rate limit fallback: %w", config.Name, err)
	}
	return decision, nil
}
