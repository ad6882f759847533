package app

import (
	"context"
	"encoding/base64"
	"slices"
	"strings"

	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
)

const (
	DefaultMaxMessageLen = 2000
	DefaultHistoryLimit  = 50
	MaxHistoryLimit      = 200
	maxEncAlgoLen        = 50
)

// ChatGateway validates, rate limits and persists chat messages.
type ChatGateway struct {
	Rooms      core.RoomStore
	Users      core.UserStore
	Messages   core.MessageStore
	Limiter    *RoomRateLimiter
	Clock      clock.Clock
	MaxLen     int
	Denylist   []string
	HistoryMax int
}

func (g *ChatGateway) resolve(ctx context.Context, slug domain.RoomSlug, user domain.UserID) (*domain.Room, error) {
	room, err := g.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := g.Users.UserByID(ctx, user); err != nil {
		return nil, err
	}
	return room, nil
}

// Send stores a plaintext message after sanitizing it.
func (g *ChatGateway) Send(ctx context.Context, slug domain.RoomSlug, user domain.UserID, text string) (*domain.Message, error) {
	room, err := g.resolve(ctx, slug, user)
	if err != nil {
		return nil, err
	}
	maxLen := g.MaxLen
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLen
	}
	clean := SanitizeText(text, maxLen)
	if clean == "" {
		return nil, domain.ErrEmptyMessage
	}
	if ContainsDenied(clean, g.Denylist) {
		return nil, domain.ErrForbiddenWords
	}
	if !g.Limiter.Allow(room.ID, user) {
		return nil, domain.ErrRateLimited
	}
	m := &domain.Message{RoomID: room.ID, UserID: user, Text: clean, CreatedAt: g.Clock.Now()}
	if err := g.Messages.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SendEncrypted stores an opaque base64 ciphertext. Only the encoding is checked.
func (g *ChatGateway) SendEncrypted(ctx context.Context, slug domain.RoomSlug, user domain.UserID, ciphertextB64, algo string) (*domain.Message, error) {
	room, err := g.resolve(ctx, slug, user)
	if err != nil {
		return nil, err
	}
	ciphertextB64 = strings.TrimSpace(ciphertextB64)
	if ciphertextB64 == "" {
		return nil, domain.ErrEmptyCiphertext
	}
	if _, err := base64.StdEncoding.DecodeString(ciphertextB64); err != nil {
		return nil, domain.ErrBadCiphertext
	}
	algo = strings.TrimSpace(algo)
	if algo == "" {
		algo = domain.DefaultEncAlgo
	}
	if len(algo) > maxEncAlgoLen {
		algo = algo[:maxEncAlgoLen]
	}
	if !g.Limiter.Allow(room.ID, user) {
		return nil, domain.ErrRateLimited
	}
	m := &domain.Message{
		RoomID:      room.ID,
		UserID:      user,
		Text:        ciphertextB64,
		IsEncrypted: true,
		EncAlgo:     algo,
		CreatedAt:   g.Clock.Now(),
	}
	if err := g.Messages.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// History pages backwards from beforeID and returns items oldest first.
func (g *ChatGateway) History(ctx context.Context, slug domain.RoomSlug, limit int, beforeID int64) (domain.HistoryPage, error) {
	room, err := g.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return domain.HistoryPage{}, err
	}
	hi := g.HistoryMax
	if hi <= 0 {
		hi = MaxHistoryLimit
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, hi)

	rows, err := g.Messages.MessagesBefore(ctx, room.ID, beforeID, limit+1)
	if err != nil {
		return domain.HistoryPage{}, err
	}
	page := domain.HistoryPage{HasMore: len(rows) > limit}
	if page.HasMore {
		rows = rows[:limit]
	}
	slices.Reverse(rows)
	if rows == nil {
		rows = []domain.Message{}
	}
	page.Items = rows
	return page, nil
}

func (g *ChatGateway) Delete(ctx context.Context, slug domain.RoomSlug, id int64) error {
	room, err := g.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return err
	}
	ok, err := g.Messages.DeleteMessage(ctx, room.ID, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrMessageNotFound
	}
	return nil
}
