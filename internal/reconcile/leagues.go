package reconcile

import (
	"fmt"
	"strings"

	"github.com/matchsight/matchsight/internal/domain/league"
)

// LeagueOverride carries per-league configuration matched by canonical name.
type LeagueOverride struct {
	Tier          int
	HomeAdvantage float64
}

// LeagueRegistry mints canonical league identities per (name, country,
// season) and applies configured tier and home-advantage overrides.
type LeagueRegistry struct {
	byID      map[string]league.League
	byKey     map[string]string
	overrides map[string]LeagueOverride
}

func NewLeagueRegistry(overrides map[string]LeagueOverride) *LeagueRegistry {
	normalized := make(map[string]LeagueOverride, len(overrides))
	for name, override := range overrides {
		normalized[Canonicalize(name)] = override
	}
	return &LeagueRegistry{
		byID:      make(map[string]league.League),
		byKey:     make(map[string]string),
		overrides: normalized,
	}
}

func (r *LeagueRegistry) Resolve(rawName, country string, seasonYear, providerTier int) league.League {
	canonical := Canonicalize(rawName)
	key := fmt.Sprintf("%s|%s|%d", canonical, strings.ToLower(strings.TrimSpace(country)), seasonYear)
	if id, ok := r.byKey[key]; ok {
		return r.byID[id]
	}

	created := league.League{
		ID:            mintID(key, ""),
		Name:          strings.TrimSpace(rawName),
		Country:       strings.TrimSpace(country),
		Tier:          providerTier,
		SeasonYear:    seasonYear,
		HomeAdvantage: league.DefaultHomeAdvantage,
	}
	if override, ok := r.overrides[canonical]; ok {
		if override.Tier > 0 {
			created.Tier = override.Tier
		}
		created.HomeAdvantage = league.ClampHomeAdvantage(override.HomeAdvantage)
	}
	// Tiers are 1-based; unknown competitions are treated as minor.
	if created.Tier <= 0 {
		created.Tier = 4
	}

	r.byID[created.ID] = created
	r.byKey[key] = created.ID
	return created
}

func (r *LeagueRegistry) Get(id string) (league.League, bool) {
	item, ok := r.byID[id]
	return item, ok
}

func (r *LeagueRegistry) Leagues() []league.League {
	out := make([]league.League, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	return out
}
