package seasonhandlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	seasonservice "github.com/Black-And-White-Club/pitwall/app/modules/season/application"
	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	seasonevents "github.com/Black-And-White-Club/pitwall/app/modules/season/events"
	"github.com/Black-And-White-Club/pitwall/app/observability/attr"
	"github.com/Black-And-White-Club/pitwall/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// SeasonHandlers implements the Handlers interface.
type SeasonHandlers struct {
	service seasonservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewSeasonHandlers creates a new SeasonHandlers instance.
func NewSeasonHandlers(
	service seasonservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &SeasonHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleRaceSubmitted records a submitted race. Validation failures become a
// rejection event; anything else is returned so the message is redelivered.
func (h *SeasonHandlers) HandleRaceSubmitted(ctx context.Context, payload *seasonevents.RaceSubmittedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "SeasonHandlers.HandleRaceSubmitted")
	defer span.End()

	h.logger.InfoContext(ctx, "Race submission received",
		attr.ExtractCorrelationID(ctx),
		attr.String("kind", payload.Kind),
		attr.Int("entries", len(payload.Results)),
	)

	kind, err := seasondomain.ParseEventKind(payload.Kind)
	if err != nil {
		return rejected(payload, err.Error(), nil), nil
	}

	snap, err := h.service.RecordRace(ctx, seasonservice.RecordRaceRequest{
		Kind:   kind,
		Tokens: payload.Results,
		HeldOn: payload.HeldOn,
	})
	if err != nil {
		var verr *seasondomain.ValidationError
		switch {
		case errors.As(err, &verr):
			h.logger.WarnContext(ctx, "Race submission rejected",
				attr.ExtractCorrelationID(ctx),
				attr.Int("violations", len(verr.Violations)),
			)
			return rejected(payload, "invalid race result", verr.Violations), nil
		case errors.Is(err, seasonservice.ErrInvalidRaceDate):
			return rejected(payload, err.Error(), nil), nil
		}
		h.logger.ErrorContext(ctx, "Failed to record race",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		return nil, err
	}

	cause := "sprint " + seasondomain.SprintMarker(snap.RaceNo).String()
	if kind == seasondomain.KindFeature {
		cause = "feature " + strconv.Itoa(snap.RaceNo)
	}
	return []handlerwrapper.Result{standingsUpdated(snap, cause)}, nil
}

// HandleRestoreRequested replays a save code into the live season.
func (h *SeasonHandlers) HandleRestoreRequested(ctx context.Context, payload *seasonevents.RestoreRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "SeasonHandlers.HandleRestoreRequested")
	defer span.End()

	snap, err := h.service.Restore(ctx, payload.SaveCode)
	if err != nil {
		if errors.Is(err, seasondomain.ErrCorruptLedger) {
			h.logger.WarnContext(ctx, "Restore refused",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			return []handlerwrapper.Result{{
				Topic:   seasonevents.RestoreFailedV1,
				Payload: &seasonevents.RestoreFailedPayloadV1{Reason: err.Error()},
			}}, nil
		}
		return nil, err
	}
	return []handlerwrapper.Result{standingsUpdated(snap, "restore")}, nil
}

func standingsUpdated(snap *seasonservice.Snapshot, cause string) handlerwrapper.Result {
	return handlerwrapper.Result{
		Topic: seasonevents.StandingsUpdatedV1,
		Payload: &seasonevents.StandingsUpdatedPayloadV1{
			RaceNo:      snap.RaceNo,
			Events:      snap.Events,
			Fingerprint: snap.Fingerprint,
			HeldOn:      snap.HeldOn,
			Cause:       cause,
			Standings:   snap.Standings,
		},
		Metadata: map[string]string{"race_no": strconv.Itoa(snap.RaceNo)},
	}
}

func rejected(payload *seasonevents.RaceSubmittedPayloadV1, reason string, violations []*seasondomain.EntryError) []handlerwrapper.Result {
	out := &seasonevents.RaceRejectedPayloadV1{
		Kind:        payload.Kind,
		Reason:      reason,
		SubmittedBy: payload.SubmittedBy,
	}
	for _, v := range violations {
		out.Violations = append(out.Violations, seasonevents.ViolationV1{
			Competitor: v.Competitor,
			Token:      v.Token,
			Problem:    v.Kind.Error(),
		})
	}
	return []handlerwrapper.Result{{Topic: seasonevents.RaceRejectedV1, Payload: out}}
}
