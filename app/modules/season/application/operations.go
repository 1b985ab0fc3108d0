package seasonservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	seasondb "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/repositories"
	"github.com/Black-And-White-Club/pitwall/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordRace validates a submission and appends it to the season.
func (s *SeasonService) RecordRace(ctx context.Context, req RecordRaceRequest) (*Snapshot, error) {
	return s.mutate(ctx, "RecordRace", string(req.Kind), func(ctx context.Context, _ bun.IDB) (results.OperationResult[*change, error], error) {
		return s.recordRaceLogic(ctx, req)
	})
}

func (s *SeasonService) recordRaceLogic(ctx context.Context, req RecordRaceRequest) (results.OperationResult[*change, error], error) {
	heldOn, err := s.dates.Parse(req.HeldOn, s.now())
	if err != nil {
		return results.FailureResult[*change, error](fmt.Errorf("%w: %v", ErrInvalidRaceDate, err)), nil
	}

	next := s.ledger.Clone()
	ev, err := next.Record(req.Kind, req.Tokens)
	if err != nil {
		var verr *seasondomain.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				s.metrics.RecordSubmissionRejected(ctx, violationReason(v.Kind))
			}
		}
		return results.FailureResult[*change, error](err), nil
	}

	return results.SuccessResult[*change, error](&change{
		next:   next,
		heldOn: heldOn,
		last:   &ev,
		label:  fmt.Sprintf("%s %s", strings.ToLower(string(ev.Kind)), ev.Marker),
	}), nil
}

// Restore replaces the season with the replay of blob. A save code that fails
// to replay leaves the current season untouched.
func (s *SeasonService) Restore(ctx context.Context, blob []byte) (*Snapshot, error) {
	return s.mutate(ctx, "Restore", strconv.Itoa(len(blob)), func(ctx context.Context, _ bun.IDB) (results.OperationResult[*change, error], error) {
		next, err := s.replay(ctx, blob)
		if err != nil {
			return results.FailureResult[*change, error](err), nil
		}
		return results.SuccessResult[*change, error](&change{next: next, label: "restore"}), nil
	})
}

// UndoLastEvent drops the final event and replays what remains.
func (s *SeasonService) UndoLastEvent(ctx context.Context) (*Snapshot, error) {
	return s.mutate(ctx, "UndoLastEvent", "", func(ctx context.Context, _ bun.IDB) (results.OperationResult[*change, error], error) {
		code, err := s.ledger.SaveCode().WithoutLastEvent()
		if err != nil {
			return results.FailureResult[*change, error](err), nil
		}
		next, err := seasondomain.Replay(s.ledger.Roster(), s.ledger.Rules(), code)
		if err != nil {
			return results.OperationResult[*change, error]{}, fmt.Errorf("replay after undo: %w", err)
		}
		return results.SuccessResult[*change, error](&change{next: next, label: "undo"}), nil
	})
}

// CorrectFeature replaces the ranks of feature race n. Points, ratings and
// counters after n are recomputed; sprint awards keep their recorded values.
func (s *SeasonService) CorrectFeature(ctx context.Context, n int, tokens map[string]string) (*Snapshot, error) {
	return s.mutate(ctx, "CorrectFeature", strconv.Itoa(n), func(ctx context.Context, _ bun.IDB) (results.OperationResult[*change, error], error) {
		result, err := seasondomain.ValidateSubmission(s.ledger.Roster(), seasondomain.KindFeature, tokens)
		if err != nil {
			return results.FailureResult[*change, error](err), nil
		}
		code, err := s.ledger.SaveCode().WithFeature(n, result)
		if err != nil {
			return results.FailureResult[*change, error](err), nil
		}
		next, err := seasondomain.Replay(s.ledger.Roster(), s.ledger.Rules(), code)
		if err != nil {
			return results.FailureResult[*change, error](err), nil
		}
		return results.SuccessResult[*change, error](&change{
			next:  next,
			label: fmt.Sprintf("correction of feature %d", n),
		}), nil
	})
}

// ResetSeason discards every recorded event.
func (s *SeasonService) ResetSeason(ctx context.Context) (*Snapshot, error) {
	return s.mutate(ctx, "ResetSeason", "", func(ctx context.Context, _ bun.IDB) (results.OperationResult[*change, error], error) {
		next, err := seasondomain.NewLedger(s.ledger.Roster(), s.ledger.Rules())
		if err != nil {
			return results.OperationResult[*change, error]{}, err
		}
		return results.SuccessResult[*change, error](&change{next: next, label: "reset"}), nil
	})
}

// RestoreArchived replays an archived save code into the live season.
func (s *SeasonService) RestoreArchived(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return s.mutate(ctx, "RestoreArchived", id.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[*change, error], error) {
		if s.repo == nil {
			return results.FailureResult[*change, error](ErrArchiveDisabled), nil
		}
		save, err := s.repo.GetArchive(ctx, db, id)
		if errors.Is(err, seasondb.ErrNotFound) {
			return results.FailureResult[*change, error](err), nil
		}
		if err != nil {
			return results.OperationResult[*change, error]{}, err
		}
		if save.Roster != s.ledger.Roster().Name() {
			return results.FailureResult[*change, error](fmt.Errorf("%w: %s", ErrArchiveMismatch, save.Roster)), nil
		}
		next, err := s.replay(ctx, save.Code)
		if err != nil {
			return results.FailureResult[*change, error](err), nil
		}
		return results.SuccessResult[*change, error](&change{
			next:   next,
			heldOn: save.HeldOn,
			label:  "restore " + save.ID.String(),
		}), nil
	})
}

// ImportRaceSheet records the race read from a CSV or XLSX sheet.
func (s *SeasonService) ImportRaceSheet(ctx context.Context, filename string, data []byte, kind seasondomain.EventKind, heldOn string) (*Snapshot, error) {
	tokens, err := ParseRaceSheet(filename, data)
	if err != nil {
		return nil, err
	}
	return s.RecordRace(ctx, RecordRaceRequest{Kind: kind, Tokens: tokens, HeldOn: heldOn})
}

// GetStandings returns the current standings.
func (s *SeasonService) GetStandings(ctx context.Context) (*Snapshot, error) {
	return read(s, ctx, "GetStandings", func(context.Context) (*Snapshot, error) {
		return s.snapshot(s.ledger, s.heldOn, nil)
	})
}

// SaveCode returns the canonical encoding of the current season.
func (s *SeasonService) SaveCode(ctx context.Context) (*SaveCodeView, error) {
	return read(s, ctx, "SaveCode", func(context.Context) (*SaveCodeView, error) {
		code := s.ledger.SaveCode()
		blob, err := seasondomain.EncodeSaveCode(code)
		if err != nil {
			return nil, err
		}
		fp, err := seasondomain.Fingerprint(code)
		if err != nil {
			return nil, err
		}
		return &SaveCodeView{RaceNo: code.RaceNo, Fingerprint: fp, Code: blob}, nil
	})
}

// Archive stores the current season under label.
func (s *SeasonService) Archive(ctx context.Context, label string) (*ArchiveSummary, error) {
	return read(s, ctx, "Archive", func(ctx context.Context) (*ArchiveSummary, error) {
		if s.repo == nil {
			return nil, ErrArchiveDisabled
		}
		save, err := s.archive(ctx, s.idb(), s.ledger, s.heldOn, label)
		if err != nil {
			return nil, err
		}
		summary := toSummary(*save)
		return &summary, nil
	})
}

// ListArchives lists archived save codes, newest first.
func (s *SeasonService) ListArchives(ctx context.Context, limit int) ([]ArchiveSummary, error) {
	return read(s, ctx, "ListArchives", func(ctx context.Context) ([]ArchiveSummary, error) {
		if s.repo == nil {
			return nil, ErrArchiveDisabled
		}
		saves, err := s.repo.ListArchives(ctx, s.idb(), limit)
		if err != nil {
			return nil, err
		}
		out := make([]ArchiveSummary, len(saves))
		for i, save := range saves {
			out[i] = toSummary(save)
		}
		return out, nil
	})
}

// idb returns the service database as a bun.IDB, or nil so repositories fall
// back to their own handle.
func (s *SeasonService) idb() bun.IDB {
	if s.db == nil {
		return nil
	}
	return s.db
}

func toSummary(save seasondb.SeasonSave) ArchiveSummary {
	return ArchiveSummary{
		ID:           save.ID,
		Fingerprint:  save.Fingerprint,
		Roster:       save.Roster,
		RulesVersion: save.RulesVersion,
		RaceNo:       save.RaceNo,
		Label:        save.Label,
		HeldOn:       save.HeldOn,
		CreatedAt:    save.CreatedAt,
	}
}

func violationReason(kind error) string {
	switch {
	case errors.Is(kind, seasondomain.ErrMalformedToken):
		return "malformed_token"
	case errors.Is(kind, seasondomain.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(kind, seasondomain.ErrDuplicateRank):
		return "duplicate_rank"
	case errors.Is(kind, seasondomain.ErrMissingEntry):
		return "missing_entry"
	case errors.Is(kind, seasondomain.ErrUnknownCompetitor):
		return "unknown_competitor"
	default:
		return "other"
	}
}
