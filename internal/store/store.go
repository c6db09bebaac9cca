// Package store persists session checkpoints, one file per session,
// so the gateway can rediscover its sessions after a restart.
package store

import (
	"context"

	"github.com/dkovac/wagate/internal/domain"
)

// Store defines the durable checkpoint operations for sessions.
type Store interface {
	// Save writes the record for rec.Name, overwriting any prior value.
	Save(ctx context.Context, rec domain.SessionRecord) error
	// Load returns the last saved record. ok is false when no record
	// exists; that is not an error.
	Load(ctx context.Context, name string) (rec domain.SessionRecord, ok bool, err error)
	// Delete removes the record. Deleting an absent record is a no-op.
	Delete(ctx context.Context, name string) error
	// ListAll returns every persisted record, ordered by name so
	// recovery proceeds deterministically.
	ListAll(ctx context.Context) ([]domain.SessionRecord, error)
}
