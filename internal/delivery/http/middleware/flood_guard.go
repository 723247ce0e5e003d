package middleware

import (
	"agency-contact-backend/internal/domain"
	"agency-contact-backend/pkg/apperror"
	"agency-contact-backend/pkg/metrics"
	"agency-contact-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

const floodMessage = "Příliš mnoho požadavků. Zpomalte prosím."

// FloodGuard rejects bursts from a single IP before any handler work
func FloodGuard(limiter *ratelimit.BurstLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			metrics.RateLimitRejections.WithLabelValues("flood").Inc()
			c.Header("Retry-After", "1")
			_ = c.Error(apperror.TooManyRequests(floodMessage, domain.ErrRateLimitExceeded))
			c.Abort()
			return
		}
		c.Next()
	}
}
