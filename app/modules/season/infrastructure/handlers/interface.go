package seasonhandlers

import (
	"context"

	seasonevents "github.com/Black-And-White-Club/pitwall/app/modules/season/events"
	"github.com/Black-And-White-Club/pitwall/app/shared/handlerwrapper"
)

// Handlers defines the interface for season event handlers.
type Handlers interface {
	// HandleRaceSubmitted records a race and publishes updated standings or a rejection.
	HandleRaceSubmitted(ctx context.Context, payload *seasonevents.RaceSubmittedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleRestoreRequested replaces the season from a save code.
	HandleRestoreRequested(ctx context.Context, payload *seasonevents.RestoreRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
