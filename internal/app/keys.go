package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/core"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

const (
	roomKeyLen     = 32
	fingerprintCtx = "conf room key fingerprint v1"
)

// KeyDistributor generates room keys and wraps them for every active
// member with a usable public key. The plaintext key never leaves memory.
type KeyDistributor struct {
	Rooms   core.RoomStore
	Users   core.UserStore
	Members core.MembershipStore
	Keys    core.KeyStore
	Clock   clock.Clock
	Rand    io.Reader
}

// RegisterPublicKey validates and stores the user's wrapping key.
func (d *KeyDistributor) RegisterPublicKey(ctx context.Context, user domain.UserID, pub string) (string, error) {
	w, err := ParsePublicKey(pub)
	if err != nil {
		return "", err
	}
	if err := d.Users.SetPublicKey(ctx, user, pub); err != nil {
		return "", err
	}
	return w.Algo(), nil
}

// InitRoomKey creates a new key for the room. Members whose key cannot be
// parsed or used are skipped; the count of wrapped shares is returned.
func (d *KeyDistributor) InitRoomKey(ctx context.Context, slug domain.RoomSlug, actor domain.UserID) (*domain.Room, domain.KeyRotated, error) {
	room, err := d.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return nil, domain.KeyRotated{}, err
	}
	am, err := d.Members.ActiveMembership(ctx, room.ID, actor)
	if err != nil {
		return nil, domain.KeyRotated{}, domain.ErrNotAMember
	}
	if !domain.IsPrivileged(am.Role) {
		return nil, domain.KeyRotated{}, domain.ErrForbidden
	}

	members, err := d.Members.ListMemberships(ctx, room.ID, true)
	if err != nil {
		return nil, domain.KeyRotated{}, err
	}
	ids := make([]domain.UserID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := d.Users.UsersByID(ctx, ids)
	if err != nil {
		return nil, domain.KeyRotated{}, err
	}

	key := make([]byte, roomKeyLen)
	defer clear(key)
	if _, err := io.ReadFull(d.random(), key); err != nil {
		return nil, domain.KeyRotated{}, fmt.Errorf("generate room key: %w", err)
	}

	now := d.Clock.Now()
	shares := make([]domain.RoomKeyShare, 0, len(members))
	for _, m := range members {
		u, ok := users[m.UserID]
		if !ok || !u.HasPublicKey() {
			continue
		}
		w, err := ParsePublicKey(u.PublicKey)
		if err != nil {
			log.Warn().Str("module", "app.keys").Int64("user", int64(u.ID)).Err(err).Msg("skipping unusable public key")
			continue
		}
		wrapped, err := w.Wrap(key)
		if err != nil {
			log.Warn().Str("module", "app.keys").Int64("user", int64(u.ID)).Err(err).Msg("wrap failed")
			continue
		}
		shares = append(shares, domain.RoomKeyShare{
			RoomID:     room.ID,
			UserID:     u.ID,
			WrapAlgo:   w.Algo(),
			WrappedKey: wrapped,
			CreatedAt:  now,
		})
	}

	rk := &domain.RoomKey{
		RoomID:           room.ID,
		CreatedBy:        actor,
		Algo:             domain.KeyAlgoAES256GCM,
		Fingerprint:      Fingerprint(key),
		Status:           domain.KeyStatusActive,
		DistributedCount: len(shares),
		CreatedAt:        now,
	}
	if err := d.Keys.CreateRoomKey(ctx, rk, shares); err != nil {
		return nil, domain.KeyRotated{}, err
	}
	log.Info().Str("module", "app.keys").Str("room", string(slug)).Int64("key", rk.ID).Int("distributed", rk.DistributedCount).Msg("room key created")
	return room, domain.KeyRotated{
		KeyID:            rk.ID,
		Algo:             rk.Algo,
		Fingerprint:      rk.Fingerprint,
		DistributedCount: rk.DistributedCount,
		ByUser:           actor,
	}, nil
}

// CurrentShare returns the newest share wrapped for user together with
// the key record it belongs to.
func (d *KeyDistributor) CurrentShare(ctx context.Context, slug domain.RoomSlug, user domain.UserID) (*domain.RoomKey, *domain.RoomKeyShare, error) {
	room, err := d.Rooms.RoomBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if _, err := d.Members.ActiveMembership(ctx, room.ID, user); err != nil {
		return nil, nil, domain.ErrNotAMember
	}
	sh, err := d.Keys.LatestShare(ctx, room.ID, user)
	if err != nil {
		return nil, nil, err
	}
	key, err := d.Keys.RoomKeyByID(ctx, sh.RoomKeyID)
	if err != nil {
		return nil, nil, err
	}
	return key, sh, nil
}

// Fingerprint identifies a key without revealing it.
func Fingerprint(key []byte) string {
	h := blake3.New()
	_, _ = h.Write([]byte(fingerprintCtx))
	_, _ = h.Write(key)
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (d *KeyDistributor) random() io.Reader {
	if d.Rand != nil {
		return d.Rand
	}
	return rand.Reader
}
