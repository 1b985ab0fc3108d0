package seasondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultListLimit = 20

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new season save repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// SaveArchive inserts save. When the fingerprint is already archived the
// existing row keeps its ID and label but has created_at and held_on refreshed,
// so returning to an earlier state (undo, restore) makes that row the latest.
func (r *Impl) SaveArchive(ctx context.Context, db bun.IDB, save *SeasonSave) (*SeasonSave, error) {
	db = r.resolveDB(db)
	err := db.NewInsert().
		Model(save).
		On("CONFLICT (fingerprint) DO UPDATE").
		Set("created_at = EXCLUDED.created_at").
		Set("held_on = EXCLUDED.held_on").
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("seasondb.SaveArchive: %w", err)
	}
	return save, nil
}

// GetArchive retrieves an archive by ID.
func (r *Impl) GetArchive(ctx context.Context, db bun.IDB, id uuid.UUID) (*SeasonSave, error) {
	db = r.resolveDB(db)
	save := new(SeasonSave)
	err := db.NewSelect().
		Model(save).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("seasondb.GetArchive: %w", err)
	}
	return save, nil
}

// GetByFingerprint retrieves an archive by fingerprint.
func (r *Impl) GetByFingerprint(ctx context.Context, db bun.IDB, fingerprint string) (*SeasonSave, error) {
	db = r.resolveDB(db)
	save := new(SeasonSave)
	err := db.NewSelect().
		Model(save).
		Where("fingerprint = ?", fingerprint).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("seasondb.GetByFingerprint: %w", err)
	}
	return save, nil
}

// ListArchives returns up to limit archives, newest first. A non-positive
// limit uses the default page size.
func (r *Impl) ListArchives(ctx context.Context, db bun.IDB, limit int) ([]SeasonSave, error) {
	db = r.resolveDB(db)
	if limit <= 0 {
		limit = defaultListLimit
	}
	var saves []SeasonSave
	err := db.NewSelect().
		Model(&saves).
		ExcludeColumn("code").
		Order("created_at DESC", "race_no DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("seasondb.ListArchives: %w", err)
	}
	return saves, nil
}

// LatestArchive returns the newest archive recorded for roster.
func (r *Impl) LatestArchive(ctx context.Context, db bun.IDB, roster string) (*SeasonSave, error) {
	db = r.resolveDB(db)
	save := new(SeasonSave)
	err := db.NewSelect().
		Model(save).
		Where("roster = ?", roster).
		Order("created_at DESC", "race_no DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("seasondb.LatestArchive: %w", err)
	}
	return save, nil
}
