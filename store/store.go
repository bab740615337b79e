// Package store is the data-access collaborator for the moderation core:
// users, posts, comments, reactions, and follow edges behind a gorm
// connection. All queries are parameterized; reads used by risk scoring and
// recommendation are plain single statements scoped to the calling request.
package store

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewStore wraps an open gorm connection and runs migrations.
func NewStore(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&User{}, &Post{}, &Comment{}, &Reaction{}, &Follow{}); err != nil {
		return nil, fmt.Errorf("running database migrations: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With("system", "store"),
	}, nil
}
