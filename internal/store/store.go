package store

import (
	"context"

	"github.com/emrgen/manual/internal/model"
)

type Store interface {
	ManualStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type ManualStore interface {
	// SaveManual inserts a new manual or updates an existing one. New manuals get their ID assigned.
	SaveManual(ctx context.Context, manual *model.Manual) error
	// GetManual retrieves a manual by ID, failing with ErrManualNotFound.
	GetManual(ctx context.Context, id uint64) (*model.Manual, error)
	// ListManuals retrieves the manuals of a group ordered by level and sort. An empty group lists every manual.
	ListManuals(ctx context.Context, groupCode string) ([]*model.Manual, error)
	// ListManualsByIDs retrieves the stored manuals among ids. Unknown ids are skipped.
	ListManualsByIDs(ctx context.Context, ids []uint64) ([]*model.Manual, error)
	// DeleteManuals deletes manuals by ID.
	DeleteManuals(ctx context.Context, ids []uint64) error
}
