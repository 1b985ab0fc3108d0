package seasonservice

import (
	"testing"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	"github.com/Black-And-White-Club/pitwall/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestBuildSeason(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.SeasonConfig
		wantErr     bool
		wantRoster  string
		wantVersion string
		check       func(t *testing.T, rules seasondomain.RuleSet)
	}{
		{
			name:        "defaults",
			cfg:         config.SeasonConfig{},
			wantRoster:  seasondomain.RosterStandard,
			wantVersion: "2025.1",
			check: func(t *testing.T, rules seasondomain.RuleSet) {
				assert.Nil(t, rules.Clamp)
				assert.Equal(t, seasondomain.SprintBonusOnly, rules.SprintMode)
			},
		},
		{
			name:        "classic preset clamps",
			cfg:         config.SeasonConfig{Roster: "expanded", Rules: "classic"},
			wantRoster:  seasondomain.RosterExpanded,
			wantVersion: "2025.1-classic",
			check: func(t *testing.T, rules seasondomain.RuleSet) {
				require.NotNil(t, rules.Clamp)
				assert.Equal(t, "6.5", rules.Clamp.Min.String())
			},
		},
		{
			name: "options fold into the version",
			cfg: config.SeasonConfig{
				SprintMode:      "flat_scale",
				HeadToHead:      "symmetric",
				PenaltyInterval: intPtr(0),
				Clamp:           "custom",
				ClampMin:        "5",
				ClampMax:        "11",
			},
			wantRoster:  seasondomain.RosterStandard,
			wantVersion: "2025.1+flat_scale+h2h-symmetric+penalty-0+clamp-5-11",
			check: func(t *testing.T, rules seasondomain.RuleSet) {
				assert.Equal(t, 0, rules.PenaltyInterval)
				assert.Equal(t, seasondomain.HeadToHeadSymmetric, rules.HeadToHead)
			},
		},
		{
			name:        "options equal to the preset keep the version",
			cfg:         config.SeasonConfig{SprintMode: "bonus_only", PenaltyInterval: intPtr(5), Clamp: "none"},
			wantRoster:  seasondomain.RosterStandard,
			wantVersion: "2025.1",
		},
		{
			name: "curve override",
			cfg: config.SeasonConfig{RatingCurve: map[int][]config.RatingBandConfig{
				8: {{UpTo: 5, Delta: "0.4"}, {UpTo: 99, Delta: "-0.2"}},
			}},
			wantRoster:  seasondomain.RosterStandard,
			wantVersion: "2025.1+curve-8[5:0.4,99:-0.2]",
			check: func(t *testing.T, rules seasondomain.RuleSet) {
				assert.Equal(t, "0.4", rules.Curve.Delta(8, 1).String())
				assert.Equal(t, "0.2", rules.Curve.Delta(9, 1).String(), "other tiers untouched")
			},
		},
		{name: "unknown roster", cfg: config.SeasonConfig{Roster: "karting"}, wantErr: true},
		{name: "unknown preset", cfg: config.SeasonConfig{Rules: "arcade"}, wantErr: true},
		{name: "unknown sprint mode", cfg: config.SeasonConfig{SprintMode: "reverse_grid"}, wantErr: true},
		{name: "custom clamp without bounds", cfg: config.SeasonConfig{Clamp: "custom"}, wantErr: true},
		{name: "inverted clamp", cfg: config.SeasonConfig{Clamp: "custom", ClampMin: "11", ClampMax: "5"}, wantErr: true},
		{name: "negative penalty interval", cfg: config.SeasonConfig{PenaltyInterval: intPtr(-1)}, wantErr: true},
		{
			name: "curve rewarding a top tier more",
			cfg: config.SeasonConfig{RatingCurve: map[int][]config.RatingBandConfig{
				10: {{UpTo: 99, Delta: "0.9"}},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster, rules, err := BuildSeason(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoster, roster.Name())
			assert.Equal(t, tt.wantVersion, rules.Version)
			if tt.check != nil {
				tt.check(t, rules)
			}
		})
	}
}
