// Package store persists rooms, users, memberships, the event log,
// chat history and key shares in SQLite through gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Conf/internal/domain"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the schema. A single connection
// serializes writers so event sequence numbers follow commit order.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Room{},
		&domain.Membership{},
		&domain.Event{},
		&domain.Message{},
		&domain.RoomKey{},
		&domain.RoomKeyShare{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("module", "store").Str("dsn", dsn).Msg("database ready")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) conn(ctx context.Context) *gorm.DB { return s.db.WithContext(ctx) }

// notFound translates gorm's miss into the domain sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
