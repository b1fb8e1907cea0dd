package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gallery-server/services/gallery-api/internal/domain/picker"
	"gallery-server/services/gallery-api/internal/utils/platformerrors"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// HandleError maps domain errors onto HTTP responses:
// expired/unknown sessions are 404, provider upstream failures 502,
// polling timeouts 504, platform errors use their own mapping, anything
// else is a 500.
func HandleError(c *gin.Context, err error, message string, log zerolog.Logger) {
	switch {
	case errors.Is(err, picker.ErrSessionExpired):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
			Error:   "session expired or unknown",
			Message: err.Error(),
		})
		return
	case errors.Is(err, picker.ErrPollingTimeout):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, ErrorResponse{
			Error:   "selection polling timed out",
			Message: err.Error(),
		})
		return
	}

	var provErr *picker.ProviderError
	if errors.As(err, &provErr) {
		log.Error().Err(err).Int("upstream_status", provErr.StatusCode).Msg(message)
		c.AbortWithStatusJSON(http.StatusBadGateway, ErrorResponse{
			Error:   "picker provider error",
			Message: err.Error(),
		})
		return
	}

	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		platformerrors.LogError(log, platformErr)
		c.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(platformErr.GetErrorType()), ErrorResponse{
			Error:   platformErr.Message,
			Message: message,
			Code:    platformErr.GetUUID(),
		})
		return
	}

	log.Error().Err(err).Msg(message)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:   message,
		Message: err.Error(),
	})
}

// HandleValidationError writes a 400 Bad Request response.
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid request",
		Message: err.Error(),
	})
}
