package seasonhttp

import (
	"context"

	seasonservice "github.com/Black-And-White-Club/pitwall/app/modules/season/application"
	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	"github.com/google/uuid"
)

// ------------------------
// Fake Season Service
// ------------------------

type FakeSeasonService struct {
	trace []string

	RecordRaceFunc      func(ctx context.Context, req seasonservice.RecordRaceRequest) (*seasonservice.Snapshot, error)
	ImportRaceSheetFunc func(ctx context.Context, filename string, data []byte, kind seasondomain.EventKind, heldOn string) (*seasonservice.Snapshot, error)
	RestoreFunc         func(ctx context.Context, blob []byte) (*seasonservice.Snapshot, error)
	SaveCodeFunc        func(ctx context.Context) (*seasonservice.SaveCodeView, error)
	GetStandingsFunc    func(ctx context.Context) (*seasonservice.Snapshot, error)
	UndoLastEventFunc   func(ctx context.Context) (*seasonservice.Snapshot, error)
	CorrectFeatureFunc  func(ctx context.Context, n int, tokens map[string]string) (*seasonservice.Snapshot, error)
	ArchiveFunc         func(ctx context.Context, label string) (*seasonservice.ArchiveSummary, error)
	ListArchivesFunc    func(ctx context.Context, limit int) ([]seasonservice.ArchiveSummary, error)
	RestoreArchivedFunc func(ctx context.Context, id uuid.UUID) (*seasonservice.Snapshot, error)
	PointsChartFunc     func(ctx context.Context, names []string) ([]byte, error)
}

func NewFakeSeasonService() *FakeSeasonService {
	return &FakeSeasonService{trace: []string{}}
}

func (f *FakeSeasonService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeSeasonService) Trace() []string {
	return f.trace
}

func (f *FakeSeasonService) RecordRace(ctx context.Context, req seasonservice.RecordRaceRequest) (*seasonservice.Snapshot, error) {
	f.record("RecordRace")
	if f.RecordRaceFunc != nil {
		return f.RecordRaceFunc(ctx, req)
	}
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) ImportRaceSheet(ctx context.Context, filename string, data []byte, kind seasondomain.EventKind, heldOn string) (*seasonservice.Snapshot, error) {
	f.record("ImportRaceSheet")
	if f.ImportRaceSheetFunc != nil {
		return f.ImportRaceSheetFunc(ctx, filename, data, kind, heldOn)
	}
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) Restore(ctx context.Context, blob []byte) (*seasonservice.Snapshot, error) {
	f.record("Restore")
	if f.RestoreFunc != nil {
		return f.RestoreFunc(ctx, blob)
	}
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) SaveCode(ctx context.Context) (*seasonservice.SaveCodeView, error) {
	f.record("SaveCode")
	if f.SaveCodeFunc != nil {
		return f.SaveCodeFunc(ctx)
	}
	return &seasonservice.SaveCodeView{}, nil
}

func (f *FakeSeasonService) GetStandings(ctx context.Context) (*seasonservice.Snapshot, error) {
	f.record("GetStandings")
	if f.GetStandingsFunc != nil {
		return f.GetStandingsFunc(ctx)
	}
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) UndoLastEvent(ctx context.Context) (*seasonservice.Snapshot, error) {
	f.record("UndoLastEvent")
	if f.UndoLastEventFunc != nil {
		return f.UndoLastEventFunc(ctx)
	}
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) CorrectFeature(ctx context.Context, n int, tokens map[string]string) (*seasonservice.Snapshot, error) {
	f.record("CorrectFeature")
	if f.CorrectFeatureFunc != nil {
		return f.CorrectFeatureFunc(ctx, n, tokens)
	}
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) ResetSeason(context.Context) (*seasonservice.Snapshot, error) {
	f.record("ResetSeason")
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) Archive(ctx context.Context, label string) (*seasonservice.ArchiveSummary, error) {
	f.record("Archive")
	if f.ArchiveFunc != nil {
		return f.ArchiveFunc(ctx, label)
	}
	return &seasonservice.ArchiveSummary{}, nil
}

func (f *FakeSeasonService) ListArchives(ctx context.Context, limit int) ([]seasonservice.ArchiveSummary, error) {
	f.record("ListArchives")
	if f.ListArchivesFunc != nil {
		return f.ListArchivesFunc(ctx, limit)
	}
	return nil, nil
}

func (f *FakeSeasonService) RestoreArchived(ctx context.Context, id uuid.UUID) (*seasonservice.Snapshot, error) {
	f.record("RestoreArchived")
	if f.RestoreArchivedFunc != nil {
		return f.RestoreArchivedFunc(ctx, id)
	}
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) PointsChart(ctx context.Context, names []string) ([]byte, error) {
	f.record("PointsChart")
	if f.PointsChartFunc != nil {
		return f.PointsChartFunc(ctx, names)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (f *FakeSeasonService) RatingChart(context.Context, []string) ([]byte, error) {
	f.record("RatingChart")
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (f *FakeSeasonService) ExportStandings(context.Context) ([]byte, error) {
	f.record("ExportStandings")
	return []byte("PK"), nil
}

var _ seasonservice.Service = (*FakeSeasonService)(nil)
