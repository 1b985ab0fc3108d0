package seasondb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for save code archive persistence.
type Repository interface {
	// SaveArchive stores a save code. Saving a fingerprint that already exists
	// refreshes and returns the existing row instead of creating a duplicate.
	SaveArchive(ctx context.Context, db bun.IDB, save *SeasonSave) (*SeasonSave, error)

	// GetArchive retrieves an archive by ID.
	GetArchive(ctx context.Context, db bun.IDB, id uuid.UUID) (*SeasonSave, error)

	// GetByFingerprint retrieves an archive by the fingerprint of its code.
	GetByFingerprint(ctx context.Context, db bun.IDB, fingerprint string) (*SeasonSave, error)

	// ListArchives returns the most recent archives, newest first.
	ListArchives(ctx context.Context, db bun.IDB, limit int) ([]SeasonSave, error)

	// LatestArchive returns the newest archive for a roster.
	LatestArchive(ctx context.Context, db bun.IDB, roster string) (*SeasonSave, error)
}
