package seasondomain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Competitor is a driver entered for the whole season.
type Competitor struct {
	Name          string
	Team          string
	Code          string
	Number        int
	InitialRating decimal.Decimal
}

// Team is a constructor entry. Tier is the car performance tier: a higher value
// means a stronger car.
type Team struct {
	Name  string
	Color string
	Tier  int
}

// Roster is the immutable season entry list. Every team fields exactly two
// competitors; teammate comparison relies on it.
type Roster struct {
	name        string
	competitors []Competitor
	teams       []Team
	byName      map[string]int
	teamIndex   map[string]int
	members     map[string][2]string
}

// NewRoster builds a roster, rejecting duplicate names, unknown teams and teams
// that do not have exactly two competitors.
func NewRoster(name string, teams []Team, competitors []Competitor) (*Roster, error) {
	if len(competitors) == 0 {
		return nil, fmt.Errorf("roster %q has no competitors", name)
	}

	r := &Roster{
		name:        name,
		competitors: make([]Competitor, len(competitors)),
		teams:       make([]Team, len(teams)),
		byName:      make(map[string]int, len(competitors)),
		teamIndex:   make(map[string]int, len(teams)),
		members:     make(map[string][2]string, len(teams)),
	}
	copy(r.competitors, competitors)
	copy(r.teams, teams)

	for i, t := range teams {
		if t.Name == "" {
			return nil, fmt.Errorf("roster %q: team %d has no name", name, i)
		}
		if _, dup := r.teamIndex[t.Name]; dup {
			return nil, fmt.Errorf("roster %q: duplicate team %q", name, t.Name)
		}
		r.teamIndex[t.Name] = i
	}

	counts := make(map[string]int, len(teams))
	for i, c := range competitors {
		if c.Name == "" {
			return nil, fmt.Errorf("roster %q: competitor %d has no name", name, i)
		}
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("roster %q: duplicate competitor %q", name, c.Name)
		}
		if _, ok := r.teamIndex[c.Team]; !ok {
			return nil, fmt.Errorf("roster %q: competitor %q references unknown team %q", name, c.Name, c.Team)
		}
		r.byName[c.Name] = i

		pair := r.members[c.Team]
		if counts[c.Team] < 2 {
			pair[counts[c.Team]] = c.Name
		}
		r.members[c.Team] = pair
		counts[c.Team]++
	}

	for _, t := range teams {
		if counts[t.Name] != 2 {
			return nil, fmt.Errorf("roster %q: team %q has %d competitors, want 2", name, t.Name, counts[t.Name])
		}
	}

	return r, nil
}

// Name is the roster identifier ("standard", "expanded", ...).
func (r *Roster) Name() string { return r.name }

// Size is the grid size N; valid ranks are 1..N.
func (r *Roster) Size() int { return len(r.competitors) }

// DNFSentinel is the effective position of a non-finisher: one past the last
// grid slot.
func (r *Roster) DNFSentinel() int { return len(r.competitors) + 1 }

// Competitors returns the entry list in roster order.
func (r *Roster) Competitors() []Competitor {
	out := make([]Competitor, len(r.competitors))
	copy(out, r.competitors)
	return out
}

// Names returns competitor names in roster order.
func (r *Roster) Names() []string {
	out := make([]string, len(r.competitors))
	for i, c := range r.competitors {
		out[i] = c.Name
	}
	return out
}

// Teams returns the teams in roster order.
func (r *Roster) Teams() []Team {
	out := make([]Team, len(r.teams))
	copy(out, r.teams)
	return out
}

// Competitor looks up a competitor by name.
func (r *Roster) Competitor(name string) (Competitor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Competitor{}, false
	}
	return r.competitors[i], true
}

// Has reports whether name is on the roster.
func (r *Roster) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Index returns the roster position of name, or -1.
func (r *Roster) Index(name string) int {
	if i, ok := r.byName[name]; ok {
		return i
	}
	return -1
}

// TeamOf returns the team a competitor drives for.
func (r *Roster) TeamOf(name string) (Team, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Team{}, false
	}
	return r.teams[r.teamIndex[r.competitors[i].Team]], true
}

// Members returns both competitors of a team in roster order.
func (r *Roster) Members(team string) ([2]string, bool) {
	m, ok := r.members[team]
	return m, ok
}

// Teammate returns the other competitor of name's team.
func (r *Roster) Teammate(name string) (string, bool) {
	i, ok := r.byName[name]
	if !ok {
		return "", false
	}
	pair := r.members[r.competitors[i].Team]
	if pair[0] == name {
		return pair[1], true
	}
	return pair[0], true
}
