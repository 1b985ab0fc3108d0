package seasondb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SeasonSave is an archived copy of a save code. The code column holds the
// canonical encoding; fingerprint is its SHA-256 and deduplicates archives.
type SeasonSave struct {
	bun.BaseModel `bun:"table:season_saves,alias:ss"`

	ID           uuid.UUID       `bun:"id,pk,type:uuid"`
	Fingerprint  string          `bun:"fingerprint,notnull,unique"`
	Roster       string          `bun:"roster,notnull"`
	RulesVersion string          `bun:"rules_version,notnull"`
	RaceNo       int             `bun:"race_no,notnull"`
	Code         json.RawMessage `bun:"code,type:jsonb,notnull"`
	Label        string          `bun:"label"`
	HeldOn       *time.Time      `bun:"held_on,nullzero"`
	CreatedAt    time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeAppendModelHook = (*SeasonSave)(nil)

func (s *SeasonSave) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}
