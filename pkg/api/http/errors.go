package http

import (
	"errors"
	"net/http"

	"github.com/aescanero/coyote/pkg/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	internalErrorMessage       = "Internal Error!"
	temporarilyUnavailableText = "Resource Temporarily Unavailable"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps an error kind to its HTTP status. The message override is
// used instead of the error's own message when non-empty. ok is false for
// kinds without a mapping.
func statusFor(kind domain.Kind) (status int, override string, ok bool) {
	switch kind {
	case domain.KindInvalidArgument,
		domain.KindIncompleteHeaders,
		domain.KindInvalidContentSize,
		domain.KindBadChunkID:
		return http.StatusBadRequest, "", true
	case domain.KindServiceStopped:
		return http.StatusServiceUnavailable, "", true
	case domain.KindResourceNotAvailable:
		return http.StatusServiceUnavailable, temporarilyUnavailableText, true
	case domain.KindResourceDoesNotExist:
		return http.StatusNotFound, "", true
	case domain.KindResourceAlreadyExists:
		return http.StatusConflict, "", true
	case domain.KindOperationFailed:
		return http.StatusInternalServerError, "", true
	case domain.KindInternal:
		return http.StatusInternalServerError, internalErrorMessage, true
	}
	return http.StatusInternalServerError, internalErrorMessage, false
}

// writeError aborts the request with the response for err
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	kind := domain.KindOf(err)
	status, message, ok := statusFor(kind)
	if !ok {
		kind = domain.KindInternal
	}

	if message == "" {
		var e *domain.Error
		if errors.As(err, &e) {
			message = e.Message
		} else {
			message = err.Error()
		}
	}

	if kind == domain.KindInternal || kind == domain.KindOperationFailed {
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("kind", kind.String()),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    kind.String(),
			Message: message,
		},
	})
}
