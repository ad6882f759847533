package http

import (
	"net/http"

	"github.com/dkeye/Conf/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func statusOf(r domain.Reason) int {
	switch r {
	case domain.ReasonInvalidToken:
		return http.StatusUnauthorized
	case domain.ReasonRoomNotFound, domain.ReasonUserNotFound, domain.ReasonMembershipNotFound,
		domain.ReasonMessageNotFound, domain.ReasonKeyNotFound:
		return http.StatusNotFound
	case domain.ReasonNotAMember, domain.ReasonForbidden, domain.ReasonRoomLocked, domain.ReasonInviteRequired,
		domain.ReasonMutedByAdmin, domain.ReasonVideoOffByAdmin, domain.ReasonMuteAll:
		return http.StatusForbidden
	case domain.ReasonRateLimited:
		return http.StatusTooManyRequests
	case domain.ReasonInternal:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// abort writes {"reason": ...} with the status matching err.
func abort(c *gin.Context, err error) {
	r := domain.ReasonOf(err)
	if r == domain.ReasonInternal {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(statusOf(r), gin.H{"reason": r})
}
