package v1

import (
	"errors"
	"net/http"

	"agency-contact-backend/internal/delivery/http/middleware"
	"agency-contact-backend/internal/delivery/http/response"
	"agency-contact-backend/internal/domain"
	"agency-contact-backend/pkg/apperror"
	"agency-contact-backend/pkg/security"
	"agency-contact-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

const (
	contactSuccessMessage     = "Zpráva byla úspěšně odeslána."
	contactUnavailableMessage = "Kontaktní formulář je dočasně nedostupný."
	maxContactBodyBytes       = 64 << 10
)

type ContactHandler struct {
	contactUC domain.ContactUsecase
	security  *security.SecurityLogger
}

// NewContactHandler registers the contact route (public, rate limited per IP).
// limits run in order before the handler.
func NewContactHandler(public *gin.RouterGroup, contactUC domain.ContactUsecase, sl *security.SecurityLogger, limits ...gin.HandlerFunc) {
	handler := &ContactHandler{
		contactUC: contactUC,
		security:  sl,
	}

	// rate limit runs before binding so rejected requests cost nothing
	public.POST("/contact", append(limits, handler.SubmitContact)...)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Validates the form, sends a confirmation to the visitor and an alert to the team. Limited to 5 requests per 15 minutes per IP.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        contact  body      domain.ContactRequest  true  "Contact Form Data"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxContactBodyBytes)

	var req domain.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(validation.InvalidPayloadMessage))
		return
	}

	ctx := c.Request.Context()
	report, err := h.contactUC.SendContactMessage(ctx, &req)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			h.security.LogValidationFailed(ctx, req.Email, c.ClientIP(), middleware.GetRequestID(c), vErr.Field, vErr.Kind.String())
			c.Error(apperror.BadRequest(vErr.Message))
		case errors.Is(err, domain.ErrMailNotConfigured):
			c.Error(apperror.ServiceUnavailable(contactUnavailableMessage, err))
		default:
			h.logDispatchFailures(c, &req, report)
			// send errors collapse into one generic message
			c.Error(apperror.Internal(middleware.GenericErrorMessage, err))
		}
		return
	}

	response.Success(c, http.StatusOK, contactSuccessMessage, nil)
}

func (h *ContactHandler) logDispatchFailures(c *gin.Context, req *domain.ContactRequest, report *domain.DispatchReport) {
	if report == nil {
		return
	}
	failures := []struct {
		role      string
		recipient string
		err       error
	}{
		{"client", req.Email, report.Client},
		{"team", "", report.Team},
	}
	for _, f := range failures {
		if f.err == nil {
			continue
		}
		h.security.LogDispatchFailed(c.Request.Context(), f.recipient, c.ClientIP(), middleware.GetRequestID(c), map[string]interface{}{
			"message": f.role,
			"kind":    domain.SendErrorKindOf(f.err).String(),
		})
	}
}
