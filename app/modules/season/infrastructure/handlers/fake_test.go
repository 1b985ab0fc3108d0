package seasonhandlers

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

	RecordRaceFunc func(ctx context.Context, req seasonservice.RecordRaceRequest) (*seasonservice.Snapshot, error)
	RestoreFunc    func(ctx context.Context, blob []byte) (*seasonservice.Snapshot, error)
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

func (f *FakeSeasonService) Restore(ctx context.Context, blob []byte) (*seasonservice.Snapshot, error) {
	f.record("Restore")
	if f.RestoreFunc != nil {
		return f.RestoreFunc(ctx, blob)
	}
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) ImportRaceSheet(context.Context, string, []byte, seasondomain.EventKind, string) (*seasonservice.Snapshot, error) {
	f.record("ImportRaceSheet")
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) SaveCode(context.Context) (*seasonservice.SaveCodeView, error) {
	f.record("SaveCode")
	return &seasonservice.SaveCodeView{}, nil
}

func (f *FakeSeasonService) GetStandings(context.Context) (*seasonservice.Snapshot, error) {
	f.record("GetStandings")
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) UndoLastEvent(context.Context) (*seasonservice.Snapshot, error) {
	f.record("UndoLastEvent")
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) CorrectFeature(context.Context, int, map[string]string) (*seasonservice.Snapshot, error) {
	f.record("CorrectFeature")
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) ResetSeason(context.Context) (*seasonservice.Snapshot, error) {
	f.record("ResetSeason")
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) Archive(context.Context, string) (*seasonservice.ArchiveSummary, error) {
	f.record("Archive")
	return &seasonservice.ArchiveSummary{}, nil
}

func (f *FakeSeasonService) ListArchives(context.Context, int) ([]seasonservice.ArchiveSummary, error) {
	f.record("ListArchives")
	return nil, nil
}

func (f *FakeSeasonService) RestoreArchived(context.Context, uuid.UUID) (*seasonservice.Snapshot, error) {
	f.record("RestoreArchived")
	return &seasonservice.Snapshot{}, nil
}

func (f *FakeSeasonService) PointsChart(context.Context, []string) ([]byte, error) {
	f.record("PointsChart")
	return nil, nil
}

func (f *FakeSeasonService) RatingChart(context.Context, []string) ([]byte, error) {
	f.record("RatingChart")
	return nil, nil
}

func (f *FakeSeasonService) ExportStandings(context.Context) ([]byte, error) {
	f.record("ExportStandings")
	return nil, nil
}

// Interface assertion
var _ seasonservice.Service = (*FakeSeasonService)(nil)
