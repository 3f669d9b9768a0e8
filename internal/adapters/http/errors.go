package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Messenger/internal/domain"
)

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
}

var errorKinds = []struct {
	kind   error
	status int
	typ    string
}{
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized_error"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden_error"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found_error"},
	{domain.ErrInvalidCall, http.StatusBadRequest, "invalid_call_error"},
	{domain.ErrValidation, http.StatusBadRequest, "validation_error"},
	{domain.ErrConflict, http.StatusConflict, "conflict_error"},
	{domain.ErrCandidateLimit, http.StatusTooManyRequests, "candidate_limit_error"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited_error"},
}

// statusFor maps an error kind to its HTTP status and error type.
func statusFor(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return k.status, k.typ
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError renders err with the status of its kind. Internal errors are
// logged and their details hidden from the client.
func writeError(c *gin.Context, err error) {
	status, typ := statusFor(err)
	writeErrorStatus(c, status, typ, err)
}

func writeErrorStatus(c *gin.Context, status int, typ string, err error) {
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).
			Str("request_id", requestID(c)).Msg("request failed")
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, errorResponse{
		Error: errorDetail{Message: msg, Type: typ, RequestID: requestID(c)},
	})
}

func badRequest(c *gin.Context, msg string) {
	writeErrorStatus(c, http.StatusBadRequest, "validation_error", errors.New(msg))
}
