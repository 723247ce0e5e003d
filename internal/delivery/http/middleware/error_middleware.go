package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"agency-contact-backend/internal/delivery/http/response"
	"agency-contact-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const GenericErrorMessage = "Nepodařilo se odeslat zprávu. Zkuste to prosím později."

func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Check if there are errors appended to the context
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil && appErr.Code >= http.StatusInternalServerError {
				logger.Error("Request failed",
					"status", appErr.Code,
					"path", c.FullPath(),
					"request_id", GetRequestID(c),
					"error", appErr.Err,
				)
			}
			response.Error(c, appErr.Code, appErr.Message)
			return
		}

		// SECURITY: Never expose internal error details to clients.
		logger.Error("Internal server error", "path", c.FullPath(), "request_id", GetRequestID(c), "error", err)
		response.Error(c, http.StatusInternalServerError, GenericErrorMessage)
	}
}
