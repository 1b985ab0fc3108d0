package seasondomain

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// Trend glyphs.
const (
	TrendUp   = "▲"
	TrendDown = "▼"
	TrendFlat = "–"
)

// CompetitorStanding is one row of the driver table.
type CompetitorStanding struct {
	Position        int             `json:"position"`
	Name            string          `json:"name"`
	Team            string          `json:"team"`
	Points          int             `json:"points"`
	P1              int             `json:"p1"`
	P2              int             `json:"p2"`
	P3              int             `json:"p3"`
	DNFs            int             `json:"dnfs"`
	Races           int             `json:"races"`
	AveragePosition *float64        `json:"average_position"`
	Rating          decimal.Decimal `json:"rating"`
	// Trend is the number of places gained in the latest feature race; nil
	// before the first one.
	Trend *int `json:"trend"`
}

// TrendGlyph renders Trend for display.
func (s CompetitorStanding) TrendGlyph() string {
	switch {
	case s.Trend == nil:
		return ""
	case *s.Trend > 0:
		return TrendUp
	case *s.Trend < 0:
		return TrendDown
	default:
		return TrendFlat
	}
}

// TeamStanding aggregates both team members.
type TeamStanding struct {
	Position        int             `json:"position"`
	Name            string          `json:"name"`
	Color           string          `json:"color"`
	Tier            int             `json:"tier"`
	Members         [2]string       `json:"members"`
	Points          int             `json:"points"`
	P1              int             `json:"p1"`
	P2              int             `json:"p2"`
	P3              int             `json:"p3"`
	DNFs            int             `json:"dnfs"`
	AveragePosition *float64        `json:"average_position"`
	AverageRating   decimal.Decimal `json:"average_rating"`
}

// Standings is the read model handed to presentation.
type Standings struct {
	RaceNo      int                       `json:"race_no"`
	Competitors []CompetitorStanding      `json:"competitors"`
	Teams       []TeamStanding            `json:"teams"`
	Points      map[string][]HistoryPoint `json:"points"`
	Ratings     map[string][]RatingPoint  `json:"ratings"`
}

// Leader returns the first row, if any.
func (s Standings) Leader() (CompetitorStanding, bool) {
	if len(s.Competitors) == 0 {
		return CompetitorStanding{}, false
	}
	return s.Competitors[0], true
}

// sortKey is the comparable shape shared by drivers and teams.
type sortKey struct {
	points, p1, p2, p3 int
	// average position as an exact fraction; count == 0 sorts last.
	posSum, posCount int
	order            int
}

func compareKeys(a, b sortKey) int {
	if c := cmp.Compare(b.points, a.points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.p1, a.p1); c != 0 {
		return c
	}
	if c := cmp.Compare(b.p2, a.p2); c != 0 {
		return c
	}
	if c := cmp.Compare(b.p3, a.p3); c != 0 {
		return c
	}
	switch {
	case a.posCount == 0 && b.posCount != 0:
		return 1
	case a.posCount != 0 && b.posCount == 0:
		return -1
	case a.posCount != 0:
		if c := cmp.Compare(a.posSum*b.posCount, b.posSum*a.posCount); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.order, b.order)
}

func average(sum, count int) *float64 {
	if count == 0 {
		return nil
	}
	v := float64(sum) / float64(count)
	return &v
}

func positionSum(finishes []Finish, sentinel int) int {
	sum := 0
	for _, f := range finishes {
		sum += f.Position(sentinel)
	}
	return sum
}

func (l *Ledger) stateKey(s *CompetitorState) sortKey {
	return sortKey{
		points:   s.Points,
		p1:       s.P1,
		p2:       s.P2,
		p3:       s.P3,
		posSum:   positionSum(s.Finishes, l.roster.DNFSentinel()),
		posCount: len(s.Finishes),
		order:    l.roster.Index(s.Name),
	}
}

// order returns competitor names in standings order.
func (l *Ledger) order() []string {
	names := l.roster.Names()
	keys := make(map[string]sortKey, len(names))
	for _, n := range names {
		keys[n] = l.stateKey(l.states[n])
	}
	slices.SortFunc(names, func(a, b string) int { return compareKeys(keys[a], keys[b]) })
	return names
}

// positions maps each competitor to their 1-based standings position.
func (l *Ledger) positions() map[string]int {
	out := make(map[string]int, l.roster.Size())
	for i, n := range l.order() {
		out[n] = i + 1
	}
	return out
}

// Standings projects the current state. It has no side effects.
func (l *Ledger) Standings() Standings {
	sentinel := l.roster.DNFSentinel()
	out := Standings{
		RaceNo:  l.raceNo,
		Points:  make(map[string][]HistoryPoint, l.roster.Size()),
		Ratings: make(map[string][]RatingPoint, l.roster.Size()),
	}

	for i, name := range l.order() {
		s := l.states[name]
		row := CompetitorStanding{
			Position:        i + 1,
			Name:            s.Name,
			Team:            s.Team,
			Points:          s.Points,
			P1:              s.P1,
			P2:              s.P2,
			P3:              s.P3,
			DNFs:            s.DNFs,
			Races:           len(s.Finishes),
			AveragePosition: average(positionSum(s.Finishes, sentinel), len(s.Finishes)),
			Rating:          s.Rating,
		}
		if l.trend != nil {
			t := l.trend.Before[name] - l.trend.After[name]
			row.Trend = &t
		}
		out.Competitors = append(out.Competitors, row)
		out.Points[name] = slices.Clone(s.PointHistory)
		out.Ratings[name] = slices.Clone(s.RatingHistory)
	}

	teams := l.roster.Teams()
	keys := make([]sortKey, len(teams))
	rows := make([]TeamStanding, len(teams))
	for i, t := range teams {
		pair, _ := l.roster.Members(t.Name)
		a, b := l.states[pair[0]], l.states[pair[1]]
		sum := positionSum(a.Finishes, sentinel) + positionSum(b.Finishes, sentinel)
		count := len(a.Finishes) + len(b.Finishes)
		rows[i] = TeamStanding{
			Name:            t.Name,
			Color:           t.Color,
			Tier:            t.Tier,
			Members:         pair,
			Points:          a.Points + b.Points,
			P1:              a.P1 + b.P1,
			P2:              a.P2 + b.P2,
			P3:              a.P3 + b.P3,
			DNFs:            a.DNFs + b.DNFs,
			AveragePosition: average(sum, count),
			AverageRating:   a.Rating.Add(b.Rating).Div(decimal.NewFromInt(2)),
		}
		keys[i] = sortKey{
			points: rows[i].Points, p1: rows[i].P1, p2: rows[i].P2, p3: rows[i].P3,
			posSum: sum, posCount: count, order: i,
		}
	}
	idx := make([]int, len(teams))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int { return compareKeys(keys[a], keys[b]) })
	for pos, i := range idx {
		row := rows[i]
		row.Position = pos + 1
		out.Teams = append(out.Teams, row)
	}
	return out
}
