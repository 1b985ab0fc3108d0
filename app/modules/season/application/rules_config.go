package seasonservice

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	"github.com/Black-And-White-Club/pitwall/config"
	"github.com/shopspring/decimal"
)

// Rule presets selectable from configuration.
const (
	PresetDefault = "default"
	PresetClassic = "classic"
)

// BuildSeason resolves the roster and rule set named by cfg. Every option that
// differs from the preset is folded into RuleSet.Version so a save code
// recorded under one configuration does not replay under another.
func BuildSeason(cfg config.SeasonConfig) (*seasondomain.Roster, seasondomain.RuleSet, error) {
	roster, err := seasondomain.RosterByName(cfg.Roster)
	if err != nil {
		return nil, seasondomain.RuleSet{}, err
	}

	var rules seasondomain.RuleSet
	switch strings.ToLower(cfg.Rules) {
	case "", PresetDefault:
		rules = seasondomain.DefaultRules()
	case PresetClassic:
		rules = seasondomain.DefaultRules()
		rules.Clamp = seasondomain.ClassicClamp()
		rules.Version += "-classic"
	default:
		return nil, seasondomain.RuleSet{}, fmt.Errorf("unknown rules preset %q", cfg.Rules)
	}

	var variants []string
	var errs []error

	if cfg.SprintMode != "" {
		mode, err := seasondomain.ParseSprintMode(cfg.SprintMode)
		if err != nil {
			errs = append(errs, err)
		} else if mode != rules.SprintMode {
			rules.SprintMode = mode
			variants = append(variants, string(mode))
		}
	}

	if cfg.HeadToHead != "" {
		policy, err := seasondomain.ParseHeadToHeadPolicy(cfg.HeadToHead)
		if err != nil {
			errs = append(errs, err)
		} else if policy != rules.HeadToHead {
			rules.HeadToHead = policy
			variants = append(variants, "h2h-"+string(policy))
		}
	}

	if cfg.PenaltyInterval != nil && *cfg.PenaltyInterval != rules.PenaltyInterval {
		rules.PenaltyInterval = *cfg.PenaltyInterval
		variants = append(variants, "penalty-"+strconv.Itoa(rules.PenaltyInterval))
	}

	switch strings.ToLower(cfg.Clamp) {
	case "":
	case "none":
		if rules.Clamp != nil {
			rules.Clamp = nil
			variants = append(variants, "unclamped")
		}
	case "classic":
		if rules.Clamp == nil {
			rules.Clamp = seasondomain.ClassicClamp()
			variants = append(variants, "clamp-classic")
		}
	case "custom":
		lo, errLo := decimal.NewFromString(cfg.ClampMin)
		hi, errHi := decimal.NewFromString(cfg.ClampMax)
		if errLo != nil || errHi != nil {
			errs = append(errs, fmt.Errorf("custom clamp needs numeric bounds, got %q and %q", cfg.ClampMin, cfg.ClampMax))
			break
		}
		rules.Clamp = &seasondomain.Clamp{Min: lo, Max: hi}
		variants = append(variants, fmt.Sprintf("clamp-%s-%s", lo, hi))
	default:
		errs = append(errs, fmt.Errorf("unknown clamp %q", cfg.Clamp))
	}

	if len(cfg.RatingCurve) > 0 {
		curve := make(seasondomain.RatingCurve, len(rules.Curve))
		for tier, bands := range rules.Curve {
			curve[tier] = bands
		}
		tiers := make([]int, 0, len(cfg.RatingCurve))
		for tier, bands := range cfg.RatingCurve {
			tiers = append(tiers, tier)
			parsed := make([]seasondomain.RatingBand, 0, len(bands))
			for _, b := range bands {
				d, err := decimal.NewFromString(b.Delta)
				if err != nil {
					errs = append(errs, fmt.Errorf("rating curve tier %d: delta %q: %w", tier, b.Delta, err))
					continue
				}
				parsed = append(parsed, seasondomain.RatingBand{UpTo: b.UpTo, Delta: d})
			}
			curve[tier] = parsed
		}
		rules.Curve = curve
		slices.Sort(tiers)
		for _, tier := range tiers {
			variants = append(variants, "curve-"+curveSignature(tier, curve[tier]))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, seasondomain.RuleSet{}, fmt.Errorf("season rules: %w", err)
	}
	if len(variants) > 0 {
		rules.Version += "+" + strings.Join(variants, "+")
	}
	if err := rules.Validate(roster); err != nil {
		return nil, seasondomain.RuleSet{}, fmt.Errorf("season rules: %w", err)
	}
	return roster, rules, nil
}

func curveSignature(tier int, bands []seasondomain.RatingBand) string {
	parts := make([]string, len(bands))
	for i, b := range bands {
		parts[i] = fmt.Sprintf("%d:%s", b.UpTo, b.Delta)
	}
	return fmt.Sprintf("%d[%s]", tier, strings.Join(parts, ","))
}
