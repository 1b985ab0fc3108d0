package seasondomain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// RosterStandard is the 22-car grid.
	RosterStandard = "standard"
	// RosterExpanded is the 24-car grid with a twelfth team.
	RosterExpanded = "expanded"
)

var standardTeams = []Team{
	{Name: "McLaren", Color: "#FF8000", Tier: 10},
	{Name: "Ferrari", Color: "#E8002D", Tier: 10},
	{Name: "Red Bull Racing", Color: "#3671C6", Tier: 10},
	{Name: "Mercedes", Color: "#27F4D2", Tier: 9},
	{Name: "Aston Martin", Color: "#229971", Tier: 9},
	{Name: "Williams", Color: "#64C4FF", Tier: 9},
	{Name: "Alpine", Color: "#0093CC", Tier: 8},
	{Name: "Racing Bulls", Color: "#6692FF", Tier: 8},
	{Name: "Haas", Color: "#B6BABD", Tier: 8},
	{Name: "Sauber", Color: "#52E252", Tier: 8},
	{Name: "Cadillac", Color: "#C0A062", Tier: 8},
}

type competitorSeed struct {
	name   string
	team   string
	code   string
	number int
	rating float64
}

var standardCompetitors = []competitorSeed{
	{"Lando Norris", "McLaren", "NOR", 4, 9.4},
	{"Oscar Piastri", "McLaren", "PIA", 81, 9.2},
	{"Charles Leclerc", "Ferrari", "LEC", 16, 9.3},
	{"Lewis Hamilton", "Ferrari", "HAM", 44, 9.3},
	{"Max Verstappen", "Red Bull Racing", "VER", 1, 9.8},
	{"Yuki Tsunoda", "Red Bull Racing", "TSU", 22, 8.4},
	{"George Russell", "Mercedes", "RUS", 63, 9.1},
	{"Kimi Antonelli", "Mercedes", "ANT", 12, 8.3},
	{"Fernando Alonso", "Aston Martin", "ALO", 14, 9.0},
	{"Lance Stroll", "Aston Martin", "STR", 18, 7.8},
	{"Alexander Albon", "Williams", "ALB", 23, 8.6},
	{"Carlos Sainz", "Williams", "SAI", 55, 8.9},
	{"Pierre Gasly", "Alpine", "GAS", 10, 8.5},
	{"Franco Colapinto", "Alpine", "COL", 43, 7.9},
	{"Liam Lawson", "Racing Bulls", "LAW", 30, 8.0},
	{"Isack Hadjar", "Racing Bulls", "HAD", 6, 8.1},
	{"Esteban Ocon", "Haas", "OCO", 31, 8.3},
	{"Oliver Bearman", "Haas", "BEA", 87, 8.2},
	{"Nico Hulkenberg", "Sauber", "HUL", 27, 8.4},
	{"Gabriel Bortoleto", "Sauber", "BOR", 5, 7.9},
	{"Sergio Perez", "Cadillac", "PER", 11, 8.4},
	{"Valtteri Bottas", "Cadillac", "BOT", 77, 8.3},
}

var expansionTeam = Team{Name: "Andretti", Color: "#1E1E1E", Tier: 8}

var expansionCompetitors = []competitorSeed{
	{"Colton Herta", "Andretti", "HER", 26, 7.9},
	{"Felipe Drugovich", "Andretti", "DRU", 34, 7.7},
}

func buildRoster(name string, teams []Team, seeds []competitorSeed) (*Roster, error) {
	competitors := make([]Competitor, len(seeds))
	for i, s := range seeds {
		competitors[i] = Competitor{
			Name:          s.name,
			Team:          s.team,
			Code:          s.code,
			Number:        s.number,
			InitialRating: decimal.NewFromFloat(s.rating),
		}
	}
	return NewRoster(name, teams, competitors)
}

// StandardRoster returns the 22-competitor grid.
func StandardRoster() *Roster {
	r, err := buildRoster(RosterStandard, standardTeams, standardCompetitors)
	if err != nil {
		panic(err)
	}
	return r
}

// ExpandedRoster returns the 24-competitor grid.
func ExpandedRoster() *Roster {
	teams := append(append([]Team{}, standardTeams...), expansionTeam)
	seeds := append(append([]competitorSeed{}, standardCompetitors...), expansionCompetitors...)
	r, err := buildRoster(RosterExpanded, teams, seeds)
	if err != nil {
		panic(err)
	}
	return r
}

// RosterByName resolves a compiled-in roster.
func RosterByName(name string) (*Roster, error) {
	switch name {
	case "", RosterStandard:
		return StandardRoster(), nil
	case RosterExpanded:
		return ExpandedRoster(), nil
	default:
		return nil, fmt.Errorf("unknown roster %q", name)
	}
}
