package storage

import (
	"context"
	"errors"
	"time"

	"royaltyhub/native/royalty"
	"royaltyhub/observability"
)

type instrumented struct {
	Database
	driver string
}

// Instrument wraps db so every unit reports latency and conflicts to the
// store metrics registry.
func Instrument(db Database, driver string) Database {
	if db == nil {
		return nil
	}
	return &instrumented{Database: db, driver: driver}
}

func (i *instrumented) Update(ctx context.Context, fn func(royalty.State) error) error {
	start := time.Now()
	err := i.Database.Update(ctx, fn)
	observability.Store().ObserveUnit(i.driver, "update", time.Since(start), errors.Is(err, royalty.ErrConflict))
	return err
}

func (i *instrumented) View(ctx context.Context, fn func(royalty.State) error) error {
	start := time.Now()
	err := i.Database.View(ctx, fn)
	observability.Store().ObserveUnit(i.driver, "view", time.Since(start), false)
	return err
}
