// Package metrics exposes Prometheus counters for the contact pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ContactSubmissions counts finished submissions by outcome:
	// delivered, partial, failed, invalid, unavailable
	ContactSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agency_contact_submissions_total",
		Help: "Total number of contact form submissions by outcome",
	}, []string{"outcome"})

	// MailSends counts individual dispatch attempts by message role and result
	MailSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agency_mail_send_total",
		Help: "Total number of notification send attempts",
	}, []string{"message", "result"})

	RateLimitRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agency_rate_limit_rejections_total",
		Help: "Total number of requests rejected by a rate limiter",
	}, []string{"limiter"})

	RateLimitStoreErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agency_rate_limit_store_errors_total",
		Help: "Total number of failed rate limit store lookups",
	}, []string{"limiter"})
)

func init() {
	prometheus.MustRegister(ContactSubmissions)
	prometheus.MustRegister(MailSends)
	prometheus.MustRegister(RateLimitRejections)
	prometheus.MustRegister(RateLimitStoreErrors)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
