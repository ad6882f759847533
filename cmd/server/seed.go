package main

import (
	"context"
	"fmt"

	"github.com/dkeye/Conf/internal/app"
	"github.com/dkeye/Conf/internal/auth"
	"github.com/dkeye/Conf/internal/config"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/dkeye/Conf/internal/store"
	"github.com/rs/zerolog/log"
)

// seed creates the configured fixtures when missing and logs a token per
// user. Only debug and test modes seed.
func seed(ctx context.Context, cfg *config.Config, db *store.Store, tokens *auth.Tokens) error {
	if cfg.Mode == "release" {
		return nil
	}
	users := make(map[string]*domain.User, len(cfg.Seed.Users))
	for _, su := range cfg.Seed.Users {
		u, err := db.EnsureUser(ctx, su.Nickname)
		if err != nil {
			return fmt.Errorf("seed user %q: %w", su.Nickname, err)
		}
		if su.PublicKey != "" && u.PublicKey == "" {
			if _, err := app.ParsePublicKey(su.PublicKey); err != nil {
				return fmt.Errorf("seed user %q: %w", su.Nickname, err)
			}
			if err := db.SetPublicKey(ctx, u.ID, su.PublicKey); err != nil {
				return err
			}
		}
		users[u.Nickname] = u
		token, err := tokens.Issue(u.ID)
		if err != nil {
			return err
		}
		log.Info().Str("module", "seed").Str("nickname", u.Nickname).Int64("user", int64(u.ID)).Str("token", token).Msg("seeded user")
	}
	for _, sr := range cfg.Seed.Rooms {
		owner, ok := users[sr.Owner]
		if !ok {
			return fmt.Errorf("seed room %q: unknown owner %q", sr.Slug, sr.Owner)
		}
		r, err := domain.NewRoom(domain.RoomSlug(sr.Slug), sr.Title, owner.ID)
		if err != nil {
			return fmt.Errorf("seed room %q: %w", sr.Slug, err)
		}
		r.IsLocked = sr.Locked
		if sr.InviteKey != "" {
			invite := sr.InviteKey
			r.InviteKey = &invite
		}
		if _, err := db.EnsureRoom(ctx, r); err != nil {
			return fmt.Errorf("seed room %q: %w", sr.Slug, err)
		}
		log.Info().Str("module", "seed").Str("room", sr.Slug).Str("owner", sr.Owner).Msg("seeded room")
	}
	return nil
}
