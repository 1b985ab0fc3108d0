package seasondomain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// SaveCode is the persisted season: raw feature ranks per competitor plus the
// sprint award side table. Every derived field is rebuilt from it by Replay.
type SaveCode struct {
	RaceNo  int                 `json:"race_no"`
	Data    map[string][]Finish `json:"data"`
	Sprints []SprintRecord      `json:"sprints"`
	Rules   string              `json:"rules,omitempty"`
}

// SprintRecord stores the awards of one sprint. Results holds only non-zero
// awards; Ranks is kept so the sprint can be shown and re-checked later.
type SprintRecord struct {
	AttachedTo EventMarker       `json:"attached_to"`
	Results    map[string]int    `json:"results"`
	Ranks      map[string]Finish `json:"ranks,omitempty"`
}

// SaveCode serializes the ledger to its minimal persisted form.
func (l *Ledger) SaveCode() SaveCode {
	code := SaveCode{
		RaceNo:  l.raceNo,
		Data:    make(map[string][]Finish, len(l.states)),
		Sprints: []SprintRecord{},
		Rules:   l.rules.Version,
	}
	for name, s := range l.states {
		code.Data[name] = slices.Clone(s.Finishes)
		if code.Data[name] == nil {
			code.Data[name] = []Finish{}
		}
	}
	for _, ev := range l.events {
		if ev.Kind != KindSprint {
			continue
		}
		rec := SprintRecord{AttachedTo: ev.Marker, Results: map[string]int{}}
		for name, pts := range ev.Awards {
			if pts != 0 {
				rec.Results[name] = pts
			}
		}
		if len(ev.Result.Entries) > 0 {
			rec.Ranks = ev.Result.Finishes()
		}
		code.Sprints = append(code.Sprints, rec)
	}
	return code
}

// EncodeSaveCode renders the canonical JSON form. Map keys are emitted in
// sorted order, so equal save codes encode to equal bytes.
func EncodeSaveCode(code SaveCode) ([]byte, error) {
	if code.Sprints == nil {
		code.Sprints = []SprintRecord{}
	}
	b, err := json.Marshal(code)
	if err != nil {
		return nil, fmt.Errorf("encode save code: %w", err)
	}
	return b, nil
}

// DecodeSaveCode parses a save code blob. A missing sprints list decodes as
// empty; unknown fields are ignored.
func DecodeSaveCode(blob []byte) (SaveCode, error) {
	var code SaveCode
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(blob)))
	if err := dec.Decode(&code); err != nil {
		return SaveCode{}, corrupt(err, "decode save code")
	}
	if dec.More() {
		return SaveCode{}, corrupt(nil, "trailing data after save code")
	}
	if code.Sprints == nil {
		code.Sprints = []SprintRecord{}
	}
	return code, nil
}

// Fingerprint is the hex SHA-256 of the canonical encoding.
func Fingerprint(code SaveCode) (string, error) {
	b, err := EncodeSaveCode(code)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Clone returns a deep copy.
func (c SaveCode) Clone() SaveCode {
	out := SaveCode{RaceNo: c.RaceNo, Rules: c.Rules, Data: make(map[string][]Finish, len(c.Data))}
	for name, finishes := range c.Data {
		out.Data[name] = slices.Clone(finishes)
	}
	out.Sprints = make([]SprintRecord, len(c.Sprints))
	for i, s := range c.Sprints {
		out.Sprints[i] = SprintRecord{AttachedTo: s.AttachedTo, Results: maps.Clone(s.Results), Ranks: maps.Clone(s.Ranks)}
	}
	return out
}

// WithoutLastEvent drops the chronologically last event. A sprint attached
// after the last feature race is later than that race.
func (c SaveCode) WithoutLastEvent() (SaveCode, error) {
	out := c.Clone()
	if n := len(out.Sprints); n > 0 && out.Sprints[n-1].AttachedTo == SprintMarker(out.RaceNo) {
		out.Sprints = out.Sprints[:n-1]
		return out, nil
	}
	if out.RaceNo == 0 {
		return SaveCode{}, ErrNoEvents
	}
	for name, finishes := range out.Data {
		if len(finishes) >= out.RaceNo {
			out.Data[name] = finishes[:out.RaceNo-1]
		}
	}
	out.RaceNo--
	return out, nil
}

// WithFeature replaces the ranks of feature race n (1-based). Stored sprint
// awards are left as they were recorded.
func (c SaveCode) WithFeature(n int, result RaceResult) (SaveCode, error) {
	if n < 1 || n > c.RaceNo {
		return SaveCode{}, fmt.Errorf("feature race %d of %d: %w", n, c.RaceNo, ErrEventNotFound)
	}
	out := c.Clone()
	for _, e := range result.Entries {
		finishes, ok := out.Data[e.Competitor]
		if !ok || len(finishes) < n {
			return SaveCode{}, corrupt(nil, "competitor %q has no feature race %d", e.Competitor, n)
		}
		finishes[n-1] = e.Finish
	}
	return out, nil
}

// Replay rebuilds a ledger from a save code, applying events in their original
// interleaving. It builds into a fresh ledger and fails closed: any structural
// problem returns a *CorruptLedgerError and no ledger.
func Replay(roster *Roster, rules RuleSet, code SaveCode) (*Ledger, error) {
	if err := checkSaveCode(roster, rules, code); err != nil {
		return nil, err
	}
	l, err := NewLedger(roster, rules)
	if err != nil {
		return nil, err
	}

	next := 0
	for f := 0; f <= code.RaceNo; f++ {
		for next < len(code.Sprints) && code.Sprints[next].AttachedTo == SprintMarker(f) {
			rec := code.Sprints[next]
			result := RaceResult{Kind: KindSprint}
			if len(rec.Ranks) > 0 {
				result, err = ValidateFinishes(roster, KindSprint, rec.Ranks)
				if err != nil {
					return nil, corrupt(err, "sprint %d ranks", next)
				}
			}
			awards := make(map[string]int, roster.Size())
			for _, name := range roster.Names() {
				awards[name] = rec.Results[name]
			}
			l.applySprint(result, awards)
			next++
		}
		if f == code.RaceNo {
			break
		}
		finishes := make(map[string]Finish, roster.Size())
		for _, name := range roster.Names() {
			finishes[name] = code.Data[name][f]
		}
		result, err := ValidateFinishes(roster, KindFeature, finishes)
		if err != nil {
			return nil, corrupt(err, "feature race %d", f+1)
		}
		l.applyFeature(result)
	}
	return l, nil
}

func checkSaveCode(roster *Roster, rules RuleSet, code SaveCode) error {
	if code.RaceNo < 0 {
		return corrupt(nil, "negative race_no %d", code.RaceNo)
	}
	if code.Rules != "" && code.Rules != rules.Version {
		return corrupt(nil, "save code uses rules %q, season uses %q", code.Rules, rules.Version)
	}
	for _, name := range roster.Names() {
		finishes, ok := code.Data[name]
		if !ok && code.RaceNo > 0 {
			return corrupt(nil, "no results for %q", name)
		}
		if len(finishes) != code.RaceNo {
			return corrupt(nil, "%q has %d results, race_no is %d", name, len(finishes), code.RaceNo)
		}
	}
	for name := range code.Data {
		if !roster.Has(name) {
			return corrupt(nil, "unknown competitor %q", name)
		}
	}

	var prev EventMarker = -1
	for i, s := range code.Sprints {
		m := s.AttachedTo
		if !m.IsHalfStep() || m < 0 || m.FeaturesBefore() > code.RaceNo {
			return corrupt(nil, "sprint %d attached to invalid marker %s", i, m)
		}
		if m < prev {
			return corrupt(nil, "sprint %d at %s is out of order", i, m)
		}
		prev = m
		for name, pts := range s.Results {
			if !roster.Has(name) {
				return corrupt(nil, "sprint %d awards unknown competitor %q", i, name)
			}
			if pts < 0 {
				return corrupt(nil, "sprint %d awards %d points to %q", i, pts, name)
			}
		}
	}
	return nil
}
