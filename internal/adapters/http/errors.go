package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Bingo/internal/domain"
)

const statusClientClosedRequest = 499

type errorResponse struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
}

func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound, domain.KindRoomNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindInvalidState, domain.KindNotCalled, domain.KindInvalidClaim:
		return http.StatusUnprocessableEntity
	case domain.KindDuplicateName, domain.KindAlreadyFinished, domain.KindVersionConflict:
		return http.StatusConflict
	case domain.KindPoolExhausted:
		return http.StatusGone
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusServiceUnavailable
	}
}

// writeError maps err to its kind and a short message. Internal detail only goes to the log.
func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusOf(kind)
	ev := log.Debug()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Int("status", status).Msg("request failed")
	c.AbortWithStatusJSON(status, errorResponse{Kind: kind, Message: domain.Message(kind)})
}
