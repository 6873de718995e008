package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/evently-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/evently-backend/internal/pkg/errs"
	"github.com/nekogravitycat/evently-backend/internal/pkg/logging"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error sends a JSON error response.
// AppErrors carry their own status. Unreachable stores become 503 and
// anything else is logged with its stack and reported as a bare 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
		return
	}

	if apperror.IsUpstreamUnavailable(err) {
		slog.WarnContext(c.Request.Context(), "upstream unavailable",
			"request_id", logging.GetRequestID(c),
			"error", err.Error())
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: apperror.ErrUpstreamUnavailable.Message})
		return
	}

	slog.ErrorContext(c.Request.Context(), "unhandled error",
		"request_id", logging.GetRequestID(c),
		"error", err.Error(),
		"stack", errs.ExtractStackLines(err, 12))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// BadRequest reports a binding failure with the validator detail attached.
func BadRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
