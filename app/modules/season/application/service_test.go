package seasonservice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	seasondb "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/repositories"
	seasonmetrics "github.com/Black-And-White-Club/pitwall/app/observability/metrics/season"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/trace/noop"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func newTestService(t *testing.T, repo seasondb.Repository) *SeasonService {
	t.Helper()
	svc, err := NewSeasonService(
		seasondomain.StandardRoster(),
		seasondomain.DefaultRules(),
		repo,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		seasonmetrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
		nil,
	)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, time.March, 18, 12, 0, 0, 0, time.UTC) }
	return svc
}

// finishOrder ranks lead first, then the rest of the roster in order, then
// marks dnf as retired.
func finishOrder(lead []string, dnf ...string) map[string]string {
	tokens := map[string]string{}
	rank := 0
	for _, n := range lead {
		rank++
		tokens[n] = strconv.Itoa(rank)
	}
	for _, n := range seasondomain.StandardRoster().Names() {
		if slices.Contains(lead, n) || slices.Contains(dnf, n) {
			continue
		}
		rank++
		tokens[n] = strconv.Itoa(rank)
	}
	for _, n := range dnf {
		tokens[n] = "DNF"
	}
	return tokens
}

func feature(lead []string, dnf ...string) RecordRaceRequest {
	return RecordRaceRequest{Kind: seasondomain.KindFeature, Tokens: finishOrder(lead, dnf...)}
}

func pointsOf(snap *Snapshot, name string) int {
	for _, c := range snap.Standings.Competitors {
		if c.Name == name {
			return c.Points
		}
	}
	return -1
}

func TestRecordRace(t *testing.T) {
	duplicate := finishOrder(nil)
	duplicate["Oscar Piastri"] = "1"

	tests := []struct {
		name        string
		req         RecordRaceRequest
		wantErr     bool
		wantErrType error
		wantRaceNo  int
		wantLeader  string
		wantHeldOn  *time.Time
	}{
		{
			name:       "feature race",
			req:        RecordRaceRequest{Kind: seasondomain.KindFeature, Tokens: finishOrder(nil), HeldOn: "yesterday"},
			wantRaceNo: 1,
			wantLeader: "Lando Norris",
			wantHeldOn: ptrDay(2026, time.March, 17),
		},
		{
			name:        "duplicate rank rejects the whole submission",
			req:         RecordRaceRequest{Kind: seasondomain.KindFeature, Tokens: duplicate},
			wantErr:     true,
			wantErrType: seasondomain.ErrDuplicateRank,
		},
		{
			name:        "unknown competitor",
			req:         RecordRaceRequest{Kind: seasondomain.KindSprint, Tokens: map[string]string{"Ayrton Senna": "1"}},
			wantErr:     true,
			wantErrType: seasondomain.ErrUnknownCompetitor,
		},
		{
			name:        "unreadable race date",
			req:         RecordRaceRequest{Kind: seasondomain.KindFeature, Tokens: finishOrder(nil), HeldOn: "whenever"},
			wantErr:     true,
			wantErrType: ErrInvalidRaceDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeSeasonRepo()
			svc := newTestService(t, repo)

			snap, err := svc.RecordRace(context.Background(), tt.req)
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrType != nil {
					assert.ErrorIs(t, err, tt.wantErrType)
				}
				current, err := svc.GetStandings(context.Background())
				require.NoError(t, err)
				assert.Equal(t, 0, current.Events, "rejected submission must not change the season")
				assert.Empty(t, repo.Saves())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRaceNo, snap.RaceNo)
			require.NotNil(t, snap.Last)
			leader, ok := snap.Standings.Leader()
			require.True(t, ok)
			assert.Equal(t, tt.wantLeader, leader.Name)
			if tt.wantHeldOn != nil {
				require.NotNil(t, snap.HeldOn)
				assert.True(t, tt.wantHeldOn.Equal(*snap.HeldOn))
			}

			saves := repo.Saves()
			require.Len(t, saves, 1)
			assert.Equal(t, snap.Fingerprint, saves[0].Fingerprint)
			assert.Equal(t, "feature 1", saves[0].Label)
			assert.Equal(t, seasondomain.RosterStandard, saves[0].Roster)
		})
	}
}

func TestRecordRaceArchiveFailureKeepsSeason(t *testing.T) {
	repo := NewFakeSeasonRepo()
	repo.SaveArchiveFunc = func(context.Context, bun.IDB, *seasondb.SeasonSave) (*seasondb.SeasonSave, error) {
		return nil, errors.New("database connection failed")
	}
	svc := newTestService(t, repo)

	_, err := svc.RecordRace(context.Background(), feature(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RecordRace")

	snap, err := svc.GetStandings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.RaceNo)
	assert.Equal(t, 0, pointsOf(snap, "Lando Norris"))
}

func TestRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestService(t, nil)

	_, err := src.RecordRace(ctx, feature(nil, "Lance Stroll"))
	require.NoError(t, err)
	_, err = src.RecordRace(ctx, RecordRaceRequest{Kind: seasondomain.KindSprint, Tokens: finishOrder([]string{"Valtteri Bottas"})})
	require.NoError(t, err)
	want, err := src.RecordRace(ctx, feature([]string{"Max Verstappen", "Lewis Hamilton"}, "Lando Norris"))
	require.NoError(t, err)

	code, err := src.SaveCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, code.RaceNo)
	assert.Equal(t, want.Fingerprint, code.Fingerprint)

	dst := newTestService(t, nil)
	got, err := dst.Restore(ctx, code.Code)
	require.NoError(t, err)

	assert.Equal(t, want.Fingerprint, got.Fingerprint)
	assert.Equal(t, 3, got.Events)
	if diff := cmp.Diff(want.Standings, got.Standings, decimalEqual); diff != "" {
		t.Fatalf("restored standings differ (-want +got):\n%s", diff)
	}
}

func TestRestoreFailsClosed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	before, err := svc.RecordRace(ctx, feature(nil))
	require.NoError(t, err)

	for name, blob := range map[string]string{
		"not json":         `race_no: 1`,
		"missing driver":   `{"race_no":1,"data":{"Lando Norris":[1]}}`,
		"wrong rules":      `{"race_no":0,"data":{},"rules":"1999.1"}`,
		"list too short":   `{"race_no":2,"data":{}}`,
		"trailing garbage": `{"race_no":0,"data":{}} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Restore(ctx, []byte(blob))
			require.Error(t, err)
			assert.ErrorIs(t, err, seasondomain.ErrCorruptLedger)

			after, err := svc.GetStandings(ctx)
			require.NoError(t, err)
			assert.Equal(t, before.Fingerprint, after.Fingerprint)
		})
	}
}

func TestUndoLastEvent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	_, err := svc.UndoLastEvent(ctx)
	assert.ErrorIs(t, err, seasondomain.ErrNoEvents)

	first, err := svc.RecordRace(ctx, feature(nil))
	require.NoError(t, err)
	_, err = svc.RecordRace(ctx, RecordRaceRequest{Kind: seasondomain.KindSprint, Tokens: finishOrder(nil)})
	require.NoError(t, err)

	undone, err := svc.UndoLastEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, undone.Events)
	assert.Equal(t, first.Fingerprint, undone.Fingerprint)
	assert.Equal(t, 25, pointsOf(undone, "Lando Norris"))
}

func TestCorrectFeature(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	_, err := svc.RecordRace(ctx, feature(nil))
	require.NoError(t, err)
	_, err = svc.RecordRace(ctx, feature(nil))
	require.NoError(t, err)

	tests := []struct {
		name        string
		n           int
		tokens      map[string]string
		wantErrType error
	}{
		{name: "race never run", n: 3, tokens: finishOrder(nil), wantErrType: seasondomain.ErrEventNotFound},
		{name: "invalid correction", n: 1, tokens: map[string]string{"Lando Norris": "1"}, wantErrType: seasondomain.ErrMissingEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CorrectFeature(ctx, tt.n, tt.tokens)
			assert.ErrorIs(t, err, tt.wantErrType)
		})
	}

	snap, err := svc.CorrectFeature(ctx, 1, finishOrder([]string{"Oscar Piastri", "Lando Norris"}))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.RaceNo)
	assert.Equal(t, 25+18, pointsOf(snap, "Oscar Piastri"))
	assert.Equal(t, 18+25, pointsOf(snap, "Lando Norris"))
}

func TestResetSeason(t *testing.T) {
	ctx := context.Background()
	repo := NewFakeSeasonRepo()
	svc := newTestService(t, repo)
	_, err := svc.RecordRace(ctx, feature(nil))
	require.NoError(t, err)

	snap, err := svc.ResetSeason(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.RaceNo)
	assert.Equal(t, 0, snap.Events)
	assert.Nil(t, snap.Standings.Competitors[0].AveragePosition)

	saves := repo.Saves()
	require.Len(t, saves, 2)
	assert.Equal(t, "reset", saves[1].Label)
}

func TestArchiveOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("without a repository", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, err := svc.Archive(ctx, "manual")
		assert.ErrorIs(t, err, ErrArchiveDisabled)
		_, err = svc.ListArchives(ctx, 10)
		assert.ErrorIs(t, err, ErrArchiveDisabled)
		_, err = svc.RestoreArchived(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrArchiveDisabled)
	})

	t.Run("archive, list and restore", func(t *testing.T) {
		repo := NewFakeSeasonRepo()
		svc := newTestService(t, repo)

		afterOne, err := svc.RecordRace(ctx, feature(nil))
		require.NoError(t, err)
		_, err = svc.RecordRace(ctx, feature([]string{"Max Verstappen"}))
		require.NoError(t, err)

		again, err := svc.Archive(ctx, "manual")
		require.NoError(t, err)
		assert.Equal(t, "feature 2", again.Label, "archiving an already archived code returns the existing row")

		list, err := svc.ListArchives(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 2, list[0].RaceNo)
		assert.Equal(t, afterOne.Fingerprint, list[1].Fingerprint)

		restored, err := svc.RestoreArchived(ctx, list[1].ID)
		require.NoError(t, err)
		assert.Equal(t, afterOne.Fingerprint, restored.Fingerprint)
		assert.Equal(t, 1, restored.RaceNo)

		_, err = svc.RestoreArchived(ctx, uuid.New())
		assert.ErrorIs(t, err, seasondb.ErrNotFound)
	})

	t.Run("other roster", func(t *testing.T) {
		repo := NewFakeSeasonRepo()
		id := uuid.New()
		repo.GetArchiveFunc = func(context.Context, bun.IDB, uuid.UUID) (*seasondb.SeasonSave, error) {
			return &seasondb.SeasonSave{ID: id, Roster: seasondomain.RosterExpanded, Code: []byte(`{"race_no":0,"data":{}}`)}, nil
		}
		svc := newTestService(t, repo)
		_, err := svc.RestoreArchived(ctx, id)
		assert.ErrorIs(t, err, ErrArchiveMismatch)
	})
}

func TestLoadLatest(t *testing.T) {
	ctx := context.Background()

	repo := NewFakeSeasonRepo()
	src := newTestService(t, repo)
	want, err := src.RecordRace(ctx, feature([]string{"Charles Leclerc"}))
	require.NoError(t, err)

	dst := newTestService(t, repo)
	require.NoError(t, dst.LoadLatest(ctx))
	got, err := dst.GetStandings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Fingerprint, got.Fingerprint)

	corrupt := NewFakeSeasonRepo()
	corrupt.LatestArchiveFunc = func(context.Context, bun.IDB, string) (*seasondb.SeasonSave, error) {
		return &seasondb.SeasonSave{ID: uuid.New(), Code: []byte(`{"race_no":1,"data":{}}`)}, nil
	}
	empty := newTestService(t, corrupt)
	require.NoError(t, empty.LoadLatest(ctx))
	snap, err := empty.GetStandings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.RaceNo)

	failing := NewFakeSeasonRepo()
	failing.LatestArchiveFunc = func(context.Context, bun.IDB, string) (*seasondb.SeasonSave, error) {
		return nil, errors.New("database connection failed")
	}
	assert.Error(t, newTestService(t, failing).LoadLatest(ctx))
}

func TestLoadLatestAfterUndo(t *testing.T) {
	ctx := context.Background()
	repo := NewFakeSeasonRepo()
	src := newTestService(t, repo)

	first, err := src.RecordRace(ctx, feature(nil))
	require.NoError(t, err)
	_, err = src.RecordRace(ctx, feature([]string{"Max Verstappen"}))
	require.NoError(t, err)
	undone, err := src.UndoLastEvent(ctx)
	require.NoError(t, err)
	require.Equal(t, first.Fingerprint, undone.Fingerprint)

	assert.Len(t, repo.Saves(), 2, "the undone state reuses its archive row")

	dst := newTestService(t, repo)
	require.NoError(t, dst.LoadLatest(ctx))
	got, err := dst.GetStandings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RaceNo)
	assert.Equal(t, first.Fingerprint, got.Fingerprint)
}

func TestConcurrentSubmissionsSerialize(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewFakeSeasonRepo())

	const races = 8
	var wg sync.WaitGroup
	for i := 0; i < races; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordRace(ctx, feature(nil))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := svc.GetStandings(ctx)
	require.NoError(t, err)
	assert.Equal(t, races, snap.RaceNo)
	assert.Equal(t, races*25, pointsOf(snap, "Lando Norris"))

	code, err := svc.SaveCode(ctx)
	require.NoError(t, err)
	replayed := newTestService(t, nil)
	got, err := replayed.Restore(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, snap.Fingerprint, got.Fingerprint)
}

func TestImportRaceSheet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	var buf bytes.Buffer
	buf.WriteString("Pos,Driver\n")
	for name, tok := range finishOrder([]string{"George Russell"}) {
		buf.WriteString(tok + "," + name + "\n")
	}

	snap, err := svc.ImportRaceSheet(ctx, "round1.csv", buf.Bytes(), seasondomain.KindFeature, "")
	require.NoError(t, err)
	assert.Equal(t, 25, pointsOf(snap, "George Russell"))

	_, err = svc.ImportRaceSheet(ctx, "round1.pdf", buf.Bytes(), seasondomain.KindFeature, "")
	assert.ErrorIs(t, err, ErrInvalidSheet)
}

func TestCharts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	empty, err := svc.PointsChart(ctx, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("\x89PNG")))

	_, err = svc.RecordRace(ctx, feature(nil, "Lance Stroll"))
	require.NoError(t, err)
	_, err = svc.RecordRace(ctx, RecordRaceRequest{Kind: seasondomain.KindSprint, Tokens: finishOrder(nil)})
	require.NoError(t, err)

	points, err := svc.PointsChart(ctx, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(points, []byte("\x89PNG")))

	rating, err := svc.RatingChart(ctx, []string{"Lando Norris", "Oscar Piastri", "Lance Stroll"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(rating, []byte("\x89PNG")))

	_, err = svc.RatingChart(ctx, []string{"Ayrton Senna"})
	assert.ErrorIs(t, err, ErrUnknownCompetitors)
}

func TestExportStandings(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	_, err := svc.RecordRace(ctx, feature([]string{"Max Verstappen"}))
	require.NoError(t, err)

	blob, err := svc.ExportStandings(ctx)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Drivers", "Teams"}, f.GetSheetList())
	leader, err := f.GetCellValue("Drivers", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Max Verstappen", leader)
	points, err := f.GetCellValue("Drivers", "D2")
	require.NoError(t, err)
	assert.Equal(t, "25", points)
	team, err := f.GetCellValue("Teams", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Team", team)
}
