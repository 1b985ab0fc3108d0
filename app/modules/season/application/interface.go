package seasonservice

import (
	"context"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	"github.com/google/uuid"
)

// Service is the season tracker's application boundary. All mutating
// operations are serialized.
type Service interface {
	// RecordRace validates and records one feature or sprint result.
	RecordRace(ctx context.Context, req RecordRaceRequest) (*Snapshot, error)

	// ImportRaceSheet records a race read from a CSV or XLSX sheet.
	ImportRaceSheet(ctx context.Context, filename string, data []byte, kind seasondomain.EventKind, heldOn string) (*Snapshot, error)

	// Restore replaces the season with the replay of an encoded save code.
	Restore(ctx context.Context, blob []byte) (*Snapshot, error)

	// SaveCode returns the encoded current save code.
	SaveCode(ctx context.Context) (*SaveCodeView, error)

	// GetStandings returns the current standings.
	GetStandings(ctx context.Context) (*Snapshot, error)

	// UndoLastEvent removes the most recent feature or sprint.
	UndoLastEvent(ctx context.Context) (*Snapshot, error)

	// CorrectFeature replaces the ranks of feature race n and replays.
	CorrectFeature(ctx context.Context, n int, tokens map[string]string) (*Snapshot, error)

	// ResetSeason discards every event.
	ResetSeason(ctx context.Context) (*Snapshot, error)

	// Archive stores the current save code under label.
	Archive(ctx context.Context, label string) (*ArchiveSummary, error)

	// ListArchives lists stored save codes, newest first.
	ListArchives(ctx context.Context, limit int) ([]ArchiveSummary, error)

	// RestoreArchived replays an archived save code.
	RestoreArchived(ctx context.Context, id uuid.UUID) (*Snapshot, error)

	// PointsChart renders cumulative points for names (or the top five).
	PointsChart(ctx context.Context, names []string) ([]byte, error)

	// RatingChart renders rating history for names (or the top five).
	RatingChart(ctx context.Context, names []string) ([]byte, error)

	// ExportStandings renders both standings tables as an XLSX workbook.
	ExportStandings(ctx context.Context) ([]byte, error)
}
