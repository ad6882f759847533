// Package auth issues and verifies the signed bearer tokens that
// identify a user on REST and websocket requests.
package auth

import (
	"fmt"
	"time"

	"github.com/dkeye/Conf/internal/domain"
	"github.com/gorilla/securecookie"
)

const tokenName = "conf-token"

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(token string) (domain.UserID, error)
}

type claims struct {
	UID domain.UserID `json:"uid"`
}

// Tokens signs user ids with an HMAC key; no state is kept server side.
type Tokens struct {
	codec *securecookie.SecureCookie
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	codec := securecookie.New([]byte(secret), nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl / time.Second))
	return &Tokens{codec: codec}
}

func (t *Tokens) Issue(uid domain.UserID) (string, error) {
	token, err := t.codec.Encode(tokenName, claims{UID: uid})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (t *Tokens) Verify(token string) (domain.UserID, error) {
	if token == "" {
		return 0, domain.ErrInvalidToken
	}
	var c claims
	if err := t.codec.Decode(tokenName, token, &c); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if c.UID <= 0 {
		return 0, domain.ErrInvalidToken
	}
	return c.UID, nil
}
