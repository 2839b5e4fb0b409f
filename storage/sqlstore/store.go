package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"royaltyhub/native/royalty"
)

var errReadOnly = errors.New("sqlstore: write attempted in read-only unit")

// Store implements royalty.Store on top of gorm. Every unit runs inside a
// database transaction; mutable rows carry a version column that each write
// compares and bumps.
type Store struct {
	db *gorm.DB
	// sqlite allows a single writer, so units are serialised in-process.
	serial bool
	mu     sync.Mutex
}

// OpenSQLite opens (or creates) a sqlite database at dsn and migrates it.
func OpenSQLite(dsn string) (*Store, error) {
	return open(sqlite.Open(dsn))
}

// OpenPostgres connects to a postgres database at dsn and migrates it.
func OpenPostgres(dsn string) (*Store, error) {
	return open(postgres.Open(dsn))
}

func open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil database")
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Store{db: db, serial: db.Dialector.Name() == "sqlite"}, nil
}

// DB exposes the underlying gorm handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Update implements royalty.Store.
func (s *Store) Update(ctx context.Context, fn func(royalty.State) error) error {
	return s.run(ctx, true, fn)
}

// View implements royalty.Store.
func (s *Store) View(ctx context.Context, fn func(royalty.State) error) error {
	return s.run(ctx, false, fn)
}

func (s *Store) run(ctx context.Context, writable bool, fn func(royalty.State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.serial {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newState(tx, writable, !s.serial))
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return royalty.ErrConflict
	}
	return err
}
