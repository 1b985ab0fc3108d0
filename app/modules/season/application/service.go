package seasonservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	seasondb "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/repositories"
	"github.com/Black-And-White-Club/pitwall/app/observability/attr"
	seasonmetrics "github.com/Black-And-White-Club/pitwall/app/observability/metrics/season"
	"github.com/Black-And-White-Club/pitwall/app/shared/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "SeasonService"

// SeasonService owns the season ledger. It is the only writer: every
// operation that changes the season holds mu from validation to commit.
type SeasonService struct {
	mu     sync.Mutex
	ledger *seasondomain.Ledger
	heldOn *time.Time

	repo    seasondb.Repository
	logger  *slog.Logger
	metrics seasonmetrics.SeasonMetrics
	tracer  trace.Tracer
	db      *bun.DB

	dates *HeldOnParser
	now   func() time.Time
}

// NewSeasonService creates a service with an empty season. repo and db may be
// nil, in which case archive operations return ErrArchiveDisabled.
func NewSeasonService(
	roster *seasondomain.Roster,
	rules seasondomain.RuleSet,
	repo seasondb.Repository,
	logger *slog.Logger,
	metrics seasonmetrics.SeasonMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) (*SeasonService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = seasonmetrics.NewNoop()
	}
	ledger, err := seasondomain.NewLedger(roster, rules)
	if err != nil {
		return nil, err
	}
	return &SeasonService{
		ledger:  ledger,
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		db:      db,
		dates:   NewHeldOnParser(),
		now:     time.Now,
	}, nil
}

// LoadLatest restores the newest archived season for the configured roster.
// A missing or unreplayable archive leaves the season empty; archives are
// never modified, so nothing is lost.
func (s *SeasonService) LoadLatest(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.ledger.Roster()
	save, err := s.repo.LatestArchive(ctx, nil, roster.Name())
	if errors.Is(err, seasondb.ErrNotFound) {
		s.logger.InfoContext(ctx, "No archived season found, starting empty", attr.String("roster", roster.Name()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("LoadLatest: %w", err)
	}

	ledger, err := s.replay(ctx, save.Code)
	if err != nil {
		s.logger.WarnContext(ctx, "Latest archive could not be replayed, starting empty",
			attr.String("archive_id", save.ID.String()),
			attr.String("rules_version", save.RulesVersion),
			attr.Error(err),
		)
		return nil
	}
	s.ledger = ledger
	s.heldOn = save.HeldOn
	s.metrics.SetRaceNo(ctx, ledger.RaceNo())
	s.logger.InfoContext(ctx, "Restored season from archive",
		attr.String("archive_id", save.ID.String()),
		attr.Int("race_no", ledger.RaceNo()),
	)
	return nil
}

// replay decodes and replays blob under the service's roster and rules.
func (s *SeasonService) replay(ctx context.Context, blob []byte) (*seasondomain.Ledger, error) {
	start := time.Now()
	code, err := seasondomain.DecodeSaveCode(blob)
	if err == nil {
		var ledger *seasondomain.Ledger
		ledger, err = seasondomain.Replay(s.ledger.Roster(), s.ledger.Rules(), code)
		if err == nil {
			s.metrics.RecordReplay(ctx, "ok", time.Since(start))
			return ledger, nil
		}
	}
	s.metrics.RecordReplay(ctx, "corrupt", time.Since(start))
	return nil, err
}

// snapshot builds the read model for ledger. Callers hold mu.
func (s *SeasonService) snapshot(ledger *seasondomain.Ledger, heldOn *time.Time, last *seasondomain.Event) (*Snapshot, error) {
	fp, err := seasondomain.Fingerprint(ledger.SaveCode())
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	return &Snapshot{
		RaceNo:      ledger.RaceNo(),
		Events:      ledger.Len(),
		Fingerprint: fp,
		HeldOn:      heldOn,
		Standings:   ledger.Standings(),
		Last:        last,
	}, nil
}

// change is a ledger built by an operation but not yet installed.
type change struct {
	next   *seasondomain.Ledger
	heldOn *time.Time
	last   *seasondomain.Event
	label  string
}

// install swaps in a committed change. Callers hold mu.
func (s *SeasonService) install(ctx context.Context, c *change) {
	s.ledger = c.next
	s.heldOn = c.heldOn
	if c.last != nil {
		s.metrics.RecordEventRecorded(ctx, string(c.last.Kind))
	}
	s.metrics.SetRaceNo(ctx, c.next.RaceNo())
}

// archiveChange stores the change's save code when an archive is configured.
func (s *SeasonService) archiveChange(ctx context.Context, db bun.IDB, c *change) error {
	if s.repo == nil {
		return nil
	}
	_, err := s.archive(ctx, db, c.next, c.heldOn, c.label)
	return err
}

// mutate runs logic under the writer lock and inside a transaction, and
// installs the resulting ledger only after the transaction commits.
func (s *SeasonService) mutate(
	ctx context.Context,
	operationName string,
	identifier string,
	logic func(ctx context.Context, db bun.IDB) (results.OperationResult[*change, error], error),
) (*Snapshot, error) {
	result, err := withTelemetry(s, ctx, operationName, identifier, func(ctx context.Context) (results.OperationResult[*Snapshot, error], error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		res, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*change, error], error) {
			res, err := logic(ctx, db)
			if err != nil || !res.IsSuccess() {
				return res, err
			}
			return res, s.archiveChange(ctx, db, *res.Success)
		})
		if err != nil {
			return results.OperationResult[*Snapshot, error]{}, err
		}
		if res.IsFailure() {
			return results.FailureResult[*Snapshot, error](*res.Failure), nil
		}

		c := *res.Success
		s.install(ctx, c)
		snap, err := s.snapshot(c.next, c.heldOn, c.last)
		if err != nil {
			return results.OperationResult[*Snapshot, error]{}, err
		}
		return results.SuccessResult[*Snapshot, error](snap), nil
	})
	return unwrap(result, err)
}

// read runs fn under the lock with telemetry and no transaction.
func read[S any](s *SeasonService, ctx context.Context, operationName string, fn func(ctx context.Context) (S, error)) (S, error) {
	result, err := withTelemetry(s, ctx, operationName, "", func(ctx context.Context) (results.OperationResult[S, error], error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		v, err := fn(ctx)
		if isDomainFailure(err) {
			return results.FailureResult[S, error](err), nil
		}
		if err != nil {
			return results.OperationResult[S, error]{}, err
		}
		return results.SuccessResult[S, error](v), nil
	})
	return unwrap(result, err)
}

func (s *SeasonService) archive(ctx context.Context, db bun.IDB, ledger *seasondomain.Ledger, heldOn *time.Time, label string) (*seasondb.SeasonSave, error) {
	code := ledger.SaveCode()
	blob, err := seasondomain.EncodeSaveCode(code)
	if err != nil {
		return nil, fmt.Errorf("encode save code: %w", err)
	}
	fp, err := seasondomain.Fingerprint(code)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	save, err := s.repo.SaveArchive(ctx, db, &seasondb.SeasonSave{
		Fingerprint:  fp,
		Roster:       ledger.Roster().Name(),
		RulesVersion: ledger.Rules().Version,
		RaceNo:       ledger.RaceNo(),
		Code:         blob,
		Label:        label,
		HeldOn:       heldOn,
	})
	if err != nil {
		return nil, fmt.Errorf("archive save code: %w", err)
	}
	return save, nil
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *SeasonService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *SeasonService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}

func isDomainFailure(err error) bool {
	return errors.Is(err, ErrArchiveDisabled) ||
		errors.Is(err, ErrUnknownCompetitors) ||
		errors.Is(err, seasondb.ErrNotFound)
}

// unwrap converts an operation result into the (value, error) pair returned by
// the public methods. Domain failures come back as the error value.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if result.Success == nil {
		return zero, errors.New("operation returned no result")
	}
	return *result.Success, nil
}
