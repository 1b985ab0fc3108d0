package seasonservice

import (
	"context"
	"slices"
	"sync"

	seasondb "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Season Repo
// ------------------------

// FakeSeasonRepo keeps archives in memory unless a Func override is set.
type FakeSeasonRepo struct {
	mu    sync.Mutex
	trace []string
	saves []seasondb.SeasonSave

	SaveArchiveFunc      func(ctx context.Context, db bun.IDB, save *seasondb.SeasonSave) (*seasondb.SeasonSave, error)
	GetArchiveFunc       func(ctx context.Context, db bun.IDB, id uuid.UUID) (*seasondb.SeasonSave, error)
	GetByFingerprintFunc func(ctx context.Context, db bun.IDB, fingerprint string) (*seasondb.SeasonSave, error)
	ListArchivesFunc     func(ctx context.Context, db bun.IDB, limit int) ([]seasondb.SeasonSave, error)
	LatestArchiveFunc    func(ctx context.Context, db bun.IDB, roster string) (*seasondb.SeasonSave, error)
}

func NewFakeSeasonRepo() *FakeSeasonRepo {
	return &FakeSeasonRepo{
		trace: []string{},
	}
}

func (f *FakeSeasonRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeSeasonRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.trace)
}

func (f *FakeSeasonRepo) Saves() []seasondb.SeasonSave {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.saves)
}

// --- Repository Interface Implementation ---

func (f *FakeSeasonRepo) SaveArchive(ctx context.Context, db bun.IDB, save *seasondb.SeasonSave) (*seasondb.SeasonSave, error) {
	f.record("SaveArchive")
	if f.SaveArchiveFunc != nil {
		return f.SaveArchiveFunc(ctx, db, save)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.saves {
		if f.saves[i].Fingerprint == save.Fingerprint {
			existing := f.saves[i]
			existing.HeldOn = save.HeldOn
			f.saves = append(slices.Delete(f.saves, i, i+1), existing)
			return &existing, nil
		}
	}
	if save.ID == uuid.Nil {
		save.ID = uuid.New()
	}
	f.saves = append(f.saves, *save)
	return save, nil
}

func (f *FakeSeasonRepo) GetArchive(ctx context.Context, db bun.IDB, id uuid.UUID) (*seasondb.SeasonSave, error) {
	f.record("GetArchive")
	if f.GetArchiveFunc != nil {
		return f.GetArchiveFunc(ctx, db, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.saves {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, seasondb.ErrNotFound
}

func (f *FakeSeasonRepo) GetByFingerprint(ctx context.Context, db bun.IDB, fingerprint string) (*seasondb.SeasonSave, error) {
	f.record("GetByFingerprint")
	if f.GetByFingerprintFunc != nil {
		return f.GetByFingerprintFunc(ctx, db, fingerprint)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.saves {
		if s.Fingerprint == fingerprint {
			return &s, nil
		}
	}
	return nil, seasondb.ErrNotFound
}

func (f *FakeSeasonRepo) ListArchives(ctx context.Context, db bun.IDB, limit int) ([]seasondb.SeasonSave, error) {
	f.record("ListArchives")
	if f.ListArchivesFunc != nil {
		return f.ListArchivesFunc(ctx, db, limit)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.saves)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeSeasonRepo) LatestArchive(ctx context.Context, db bun.IDB, roster string) (*seasondb.SeasonSave, error) {
	f.record("LatestArchive")
	if f.LatestArchiveFunc != nil {
		return f.LatestArchiveFunc(ctx, db, roster)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.saves) - 1; i >= 0; i-- {
		if f.saves[i].Roster == roster {
			s := f.saves[i]
			return &s, nil
		}
	}
	return nil, seasondb.ErrNotFound
}

// Interface assertion
var _ seasondb.Repository = (*FakeSeasonRepo)(nil)
