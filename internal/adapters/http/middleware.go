package http

import (
	"net/http"
	"strings"

	"github.com/dkeye/Conf/internal/auth"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ctxToken   = "auth_token"
	ctxUserID  = "user_id"
	sessionKey = "token"
)

// TokenMiddleware resolves the bearer token from the Authorization header,
// the token query parameter or the cookie session, in that order. An
// explicit token is remembered in the session.
func TokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token := bearer(c.GetHeader("Authorization"))
		if token == "" {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token != "" {
			if prev, _ := sess.Get(sessionKey).(string); prev != token {
				sess.Set(sessionKey, token)
				if err := sess.Save(); err != nil {
					log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
				}
			}
		} else if saved, ok := sess.Get(sessionKey).(string); ok {
			token = saved
		}
		c.Set(ctxToken, token)
		c.Next()
	}
}

func bearer(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// RequireUser rejects requests without a valid token.
func RequireUser(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := v.Verify(c.GetString(ctxToken))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"reason": domain.ReasonInvalidToken})
			return
		}
		c.Set(ctxUserID, uid)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.UserID {
	uid, _ := c.Get(ctxUserID)
	id, _ := uid.(domain.UserID)
	return id
}
