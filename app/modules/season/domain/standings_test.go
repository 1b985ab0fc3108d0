package seasondomain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandingsAveragePositionTiebreak(t *testing.T) {
	l := newTestLedger(t, DefaultRules())
	// Equal points and podiums; Stroll's average of 5 beats Norris's (3+23)/2.
	l.states["Lando Norris"].Points = 10
	l.states["Lando Norris"].Finishes = []Finish{Ranked(3), DNF()}
	l.states["Lance Stroll"].Points = 10
	l.states["Lance Stroll"].Finishes = []Finish{Ranked(4), Ranked(6)}
	l.states["Oscar Piastri"].Points = 10

	got := l.Standings().Competitors
	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, "Lance Stroll", got[0].Name)
	assert.Equal(t, "Lando Norris", got[1].Name)
	assert.Equal(t, "Oscar Piastri", got[2].Name, "no finishes sorts last among equals")

	require.NotNil(t, got[1].AveragePosition)
	assert.InDelta(t, 13.0, *got[1].AveragePosition, 1e-9)
	assert.Nil(t, got[2].AveragePosition)
}

func TestStandingsPodiumsBeforeAverage(t *testing.T) {
	l := newTestLedger(t, DefaultRules())
	l.states["Lance Stroll"].Points = 30
	l.states["Lance Stroll"].P2 = 2
	l.states["Lance Stroll"].Finishes = []Finish{Ranked(2), Ranked(2)}
	l.states["Lando Norris"].Points = 30
	l.states["Lando Norris"].P1 = 1
	l.states["Lando Norris"].Finishes = []Finish{Ranked(1), Ranked(22)}

	got := l.Standings().Competitors
	assert.Equal(t, "Lando Norris", got[0].Name)
	assert.Equal(t, "Lance Stroll", got[1].Name)
}

func TestStandingsTrend(t *testing.T) {
	l := newTestLedger(t, DefaultRules())
	roster := l.Roster()

	for _, row := range l.Standings().Competitors {
		assert.Nil(t, row.Trend)
		assert.Equal(t, "", row.TrendGlyph())
	}

	mustRecord(t, l, KindFeature, raceTokens(roster, nil))
	for _, row := range l.Standings().Competitors {
		require.NotNil(t, row.Trend, row.Name)
		assert.Equal(t, TrendFlat, row.TrendGlyph(), row.Name)
	}

	reversed := roster.Names()
	slices.Reverse(reversed)
	mustRecord(t, l, KindFeature, raceTokens(roster, reversed))

	byName := map[string]CompetitorStanding{}
	for _, row := range l.Standings().Competitors {
		byName[row.Name] = row
	}
	assert.Equal(t, 1, byName["Lando Norris"].Position)
	assert.Equal(t, TrendFlat, byName["Lando Norris"].TrendGlyph())
	assert.Equal(t, 2, byName["Valtteri Bottas"].Position)
	assert.Equal(t, 20, *byName["Valtteri Bottas"].Trend)
	assert.Equal(t, TrendUp, byName["Valtteri Bottas"].TrendGlyph())
	assert.Equal(t, -1, *byName["Oscar Piastri"].Trend)
	assert.Equal(t, TrendDown, byName["Oscar Piastri"].TrendGlyph())

	// A sprint leaves the feature baseline alone.
	mustRecord(t, l, KindSprint, raceTokens(roster, nil))
	for _, row := range l.Standings().Competitors {
		if row.Name == "Valtteri Bottas" {
			assert.Equal(t, 20, *row.Trend)
		}
	}
}

func TestTeamStandings(t *testing.T) {
	l := newTestLedger(t, DefaultRules())
	mustRecord(t, l, KindFeature, raceTokens(l.Roster(), nil))

	teams := l.Standings().Teams
	require.Len(t, teams, 11)
	assert.Equal(t, "McLaren", teams[0].Name)
	assert.Equal(t, 43, teams[0].Points)
	assert.Equal(t, 1, teams[0].P1)
	assert.Equal(t, 1, teams[0].P2)
	assert.Equal(t, [2]string{"Lando Norris", "Oscar Piastri"}, teams[0].Members)
	assert.Equal(t, "Ferrari", teams[1].Name)
	assert.Equal(t, 27, teams[1].Points)
	assert.Equal(t, "Red Bull Racing", teams[2].Name)
	require.NotNil(t, teams[0].AveragePosition)
	assert.InDelta(t, 1.5, *teams[0].AveragePosition, 1e-9)

	norris, _ := l.State("Lando Norris")
	piastri, _ := l.State("Oscar Piastri")
	avg := norris.Rating.Add(piastri.Rating).Div(dec("2"))
	assert.True(t, teams[0].AverageRating.Equal(avg))
}

func TestStandingsHistorySeries(t *testing.T) {
	l := newTestLedger(t, DefaultRules())
	mustRecord(t, l, KindSprint, raceTokens(l.Roster(), nil))
	mustRecord(t, l, KindFeature, raceTokens(l.Roster(), nil))

	s := l.Standings()
	assert.Equal(t, []HistoryPoint{{0, 0}, {0.5, 5}, {1, 30}}, s.Points["Lando Norris"])
	require.Len(t, s.Ratings["Lando Norris"], 2)
	assert.Equal(t, EventMarker(1), s.Ratings["Lando Norris"][1].Marker)
}
