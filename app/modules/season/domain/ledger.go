package seasondomain

import (
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// HistoryPoint is a cumulative points value after the event at Marker.
type HistoryPoint struct {
	Marker EventMarker `json:"marker"`
	Value  int         `json:"value"`
}

// RatingPoint is a cumulative rating after the event at Marker.
type RatingPoint struct {
	Marker EventMarker     `json:"marker"`
	Value  decimal.Decimal `json:"value"`
}

// CompetitorState is the cached projection of the ledger for one competitor.
// Only the ledger mutates it.
type CompetitorState struct {
	Name        string
	Team        string
	Points      int
	Rating      decimal.Decimal
	P1          int
	P2          int
	P3          int
	DNFs        int
	Finishes    []Finish
	PenaltyNext bool

	PointHistory  []HistoryPoint
	RatingHistory []RatingPoint
}

// AveragePosition is the mean feature rank with DNFs counted as sentinel.
func (s *CompetitorState) AveragePosition(sentinel int) (float64, bool) {
	if len(s.Finishes) == 0 {
		return 0, false
	}
	return float64(positionSum(s.Finishes, sentinel)) / float64(len(s.Finishes)), true
}

func (s *CompetitorState) clone() CompetitorState {
	c := *s
	c.Finishes = slices.Clone(s.Finishes)
	c.PointHistory = slices.Clone(s.PointHistory)
	c.RatingHistory = slices.Clone(s.RatingHistory)
	return c
}

// Event is one recorded race with the deltas it produced.
type Event struct {
	Kind         EventKind
	Marker       EventMarker
	Result       RaceResult
	Awards       map[string]int
	RatingDeltas map[string]decimal.Decimal
}

// TrendBaseline holds standings positions around the latest feature race.
type TrendBaseline struct {
	Before map[string]int
	After  map[string]int
}

// Ledger is the append-only season record and its derived state.
type Ledger struct {
	roster *Roster
	rules  RuleSet
	raceNo int
	events []Event
	states map[string]*CompetitorState
	trend  *TrendBaseline
}

// NewLedger starts an empty season.
func NewLedger(roster *Roster, rules RuleSet) (*Ledger, error) {
	if roster == nil {
		return nil, fmt.Errorf("new ledger: nil roster")
	}
	if err := rules.Validate(roster); err != nil {
		return nil, fmt.Errorf("new ledger: %w", err)
	}
	l := &Ledger{
		roster: roster,
		rules:  rules,
		states: make(map[string]*CompetitorState, roster.Size()),
	}
	for _, c := range roster.Competitors() {
		l.states[c.Name] = &CompetitorState{
			Name:          c.Name,
			Team:          c.Team,
			Rating:        c.InitialRating,
			PointHistory:  []HistoryPoint{{Marker: 0, Value: 0}},
			RatingHistory: []RatingPoint{{Marker: 0, Value: c.InitialRating}},
		}
	}
	return l, nil
}

func (l *Ledger) Roster() *Roster { return l.roster }
func (l *Ledger) Rules() RuleSet  { return l.rules }

// RaceNo is the number of feature races recorded.
func (l *Ledger) RaceNo() int { return l.raceNo }

// Len is the number of recorded events of either kind.
func (l *Ledger) Len() int { return len(l.events) }

// Events returns the recorded events in chronological order.
func (l *Ledger) Events() []Event { return slices.Clone(l.events) }

// State returns a copy of one competitor's state.
func (l *Ledger) State(name string) (CompetitorState, bool) {
	s, ok := l.states[name]
	if !ok {
		return CompetitorState{}, false
	}
	return s.clone(), true
}

// States returns copies of every competitor's state in roster order.
func (l *Ledger) States() []CompetitorState {
	out := make([]CompetitorState, 0, len(l.states))
	for _, n := range l.roster.Names() {
		out = append(out, l.states[n].clone())
	}
	return out
}

// Trend returns the baseline captured around the latest feature race.
func (l *Ledger) Trend() (TrendBaseline, bool) {
	if l.trend == nil {
		return TrendBaseline{}, false
	}
	return TrendBaseline{Before: maps.Clone(l.trend.Before), After: maps.Clone(l.trend.After)}, true
}

// Clone returns an independent copy. Callers record into the copy and swap it
// in only once the change is durable.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		roster: l.roster,
		rules:  l.rules,
		raceNo: l.raceNo,
		events: slices.Clone(l.events),
		states: make(map[string]*CompetitorState, len(l.states)),
		trend:  l.trend,
	}
	for n, s := range l.states {
		cs := s.clone()
		c.states[n] = &cs
	}
	return c
}

// Record validates raw tokens and appends the event. A rejected submission
// leaves the ledger untouched.
func (l *Ledger) Record(kind EventKind, tokens map[string]string) (Event, error) {
	result, err := ValidateSubmission(l.roster, kind, tokens)
	if err != nil {
		return Event{}, err
	}
	return l.apply(result), nil
}

// RecordResult appends an already parsed result after validating it against
// the roster.
func (l *Ledger) RecordResult(result RaceResult) (Event, error) {
	validated, err := ValidateFinishes(l.roster, result.Kind, result.Finishes())
	if err != nil {
		return Event{}, err
	}
	return l.apply(validated), nil
}

func (l *Ledger) apply(result RaceResult) Event {
	if result.Kind == KindSprint {
		awards := ScoreSprint(l.rules, result, l.order())
		return l.applySprint(result, awards)
	}
	return l.applyFeature(result)
}

func (l *Ledger) applyFeature(result RaceResult) Event {
	before := l.positions()

	prior := make(map[string]PenaltyState, len(l.states))
	for n, s := range l.states {
		prior[n] = PenaltyState{DNFs: s.DNFs, PenaltyNext: s.PenaltyNext}
	}
	outcome := ScoreFeature(l.rules, result, prior)
	deltas := RateFeature(l.roster, l.rules, result)

	l.raceNo++
	marker := FeatureMarker(l.raceNo)

	for _, e := range result.Entries {
		s := l.states[e.Competitor]
		s.Finishes = append(s.Finishes, e.Finish)
		s.Points += outcome.Awards[e.Competitor]
		switch outcome.Podiums[e.Competitor] {
		case 1:
			s.P1++
		case 2:
			s.P2++
		case 3:
			s.P3++
		}
		s.Rating = applyRating(l.rules, s.Rating, deltas[e.Competitor])
		s.PointHistory = append(s.PointHistory, HistoryPoint{Marker: marker, Value: s.Points})
		s.RatingHistory = append(s.RatingHistory, RatingPoint{Marker: marker, Value: s.Rating})
	}
	for _, n := range outcome.DNFs {
		l.states[n].DNFs++
	}
	for _, n := range outcome.Forfeited {
		l.states[n].PenaltyNext = false
	}
	for _, n := range outcome.Armed {
		l.states[n].PenaltyNext = true
	}

	l.trend = &TrendBaseline{Before: before, After: l.positions()}

	ev := Event{
		Kind:         KindFeature,
		Marker:       marker,
		Result:       result,
		Awards:       outcome.Awards,
		RatingDeltas: deltas,
	}
	l.events = append(l.events, ev)
	return ev
}

// applySprint records a sprint with precomputed awards. Replay passes the
// stored awards because they depend on the standings at the time.
func (l *Ledger) applySprint(result RaceResult, awards map[string]int) Event {
	marker := SprintMarker(l.raceNo)
	for _, n := range l.roster.Names() {
		s := l.states[n]
		s.Points += awards[n]
		s.PointHistory = append(s.PointHistory, HistoryPoint{Marker: marker, Value: s.Points})
	}
	ev := Event{
		Kind:   KindSprint,
		Marker: marker,
		Result: result,
		Awards: maps.Clone(awards),
	}
	l.events = append(l.events, ev)
	return ev
}
