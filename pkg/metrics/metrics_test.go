package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHandlerExposesCounters(t *testing.T) {
	ContactSubmissions.WithLabelValues("delivered").Inc()
	MailSends.WithLabelValues("team", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agency_contact_submissions_total")
	assert.Contains(t, rec.Body.String(), `agency_mail_send_total{message="team",result="ok"}`)
}

func TestRateLimitCounters(t *testing.T) {
	before := testutil.ToFloat64(RateLimitRejections.WithLabelValues("contact"))
	RateLimitRejections.WithLabelValues("contact").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RateLimitRejections.WithLabelValues("contact")))
}
