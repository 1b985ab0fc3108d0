package seasondomain

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// DNFMarker is the token and save-code value for a non-finisher.
const DNFMarker = "DNF"

// EventKind distinguishes feature races from sprints.
type EventKind string

const (
	KindFeature EventKind = "FEATURE"
	KindSprint  EventKind = "SPRINT"
)

// ParseEventKind accepts "feature"/"sprint" in any case.
func ParseEventKind(s string) (EventKind, error) {
	switch EventKind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindFeature:
		return KindFeature, nil
	case KindSprint:
		return KindSprint, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", s)
	}
}

// EventMarker places an event on the season timeline. Feature race k sits at k;
// a sprint between feature k and k+1 sits at k+0.5. Marker 0 is pre-season.
type EventMarker float64

// FeatureMarker is the marker of the k-th feature race.
func FeatureMarker(k int) EventMarker { return EventMarker(k) }

// SprintMarker is the marker of a sprint run after k feature races.
func SprintMarker(k int) EventMarker { return EventMarker(float64(k) + 0.5) }

// IsHalfStep reports whether the marker is a sprint slot.
func (m EventMarker) IsHalfStep() bool {
	return math.Mod(float64(m)*2, 2) == 1
}

// FeaturesBefore is the number of feature races completed at this marker.
func (m EventMarker) FeaturesBefore() int { return int(math.Floor(float64(m))) }

func (m EventMarker) String() string {
	return strconv.FormatFloat(float64(m), 'f', -1, 64)
}

// Finish is a single competitor's outcome: a rank, or DNF when Rank is zero.
type Finish struct {
	Rank int
}

// Ranked returns a classified finish.
func Ranked(rank int) Finish { return Finish{Rank: rank} }

// DNF returns a non-finish.
func DNF() Finish { return Finish{} }

// IsDNF reports a non-finish.
func (f Finish) IsDNF() bool { return f.Rank <= 0 }

// Position returns the rank, or sentinel for a DNF.
func (f Finish) Position(sentinel int) int {
	if f.IsDNF() {
		return sentinel
	}
	return f.Rank
}

func (f Finish) String() string {
	if f.IsDNF() {
		return DNFMarker
	}
	return strconv.Itoa(f.Rank)
}

// MarshalJSON writes a rank as a number and a DNF as "DNF".
func (f Finish) MarshalJSON() ([]byte, error) {
	if f.IsDNF() {
		return json.Marshal(DNFMarker)
	}
	return []byte(strconv.Itoa(f.Rank)), nil
}

// UnmarshalJSON accepts a positive integer or the DNF marker.
func (f *Finish) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(s), DNFMarker) {
			return fmt.Errorf("finish %q: %w", s, ErrMalformedToken)
		}
		*f = DNF()
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("finish %s: %w", data, ErrMalformedToken)
	}
	if n < 1 {
		return fmt.Errorf("finish %d: %w", n, ErrOutOfRange)
	}
	*f = Ranked(n)
	return nil
}

// Entry pairs a competitor with their finish.
type Entry struct {
	Competitor string
	Finish     Finish
}

// RaceResult is one validated event. Entries are in roster order.
type RaceResult struct {
	Kind    EventKind
	Entries []Entry
}

// FinishOf returns the finish recorded for name.
func (r RaceResult) FinishOf(name string) (Finish, bool) {
	for _, e := range r.Entries {
		if e.Competitor == name {
			return e.Finish, true
		}
	}
	return Finish{}, false
}

// Classified returns the finishers ordered by rank.
func (r RaceResult) Classified() []Entry {
	out := make([]Entry, 0, len(r.Entries))
	for _, e := range r.Entries {
		if !e.Finish.IsDNF() {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.Finish.Rank, b.Finish.Rank)
	})
	return out
}

// ClassifiedPositions maps each finisher to their 1-based position among
// finishers. It equals the rank whenever finisher ranks are contiguous.
func (r RaceResult) ClassifiedPositions() map[string]int {
	classified := r.Classified()
	out := make(map[string]int, len(classified))
	for i, e := range classified {
		out[e.Competitor] = i + 1
	}
	return out
}

// Finishes returns a name → finish map.
func (r RaceResult) Finishes() map[string]Finish {
	out := make(map[string]Finish, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Competitor] = e.Finish
	}
	return out
}
