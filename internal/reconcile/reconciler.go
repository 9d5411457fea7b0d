// Package reconcile turns overlapping raw provider feeds into one canonical
// match stream. Identity is derived from intrinsic attributes (teams, kickoff
// bucket, league), never from provider-assigned ids.
package reconcile

import (
	"sort"
	"strconv"

	"github.com/matchsight/matchsight/internal/domain/match"
	"github.com/matchsight/matchsight/internal/platform/logging"
	"github.com/matchsight/matchsight/internal/provider"
)

type Config struct {
	// ProviderPriority orders providers for field conflicts; earlier wins.
	// Providers absent from the list rank after every listed one.
	ProviderPriority []string
	LeagueOverrides  map[string]LeagueOverride
}

// Report summarizes one reconciliation pass for the cycle report.
type Report struct {
	RecordsByProvider map[string]int
	Matches           int
	MergedDuplicates  int
	DisputedIDs       []string
	Rejected          int
}

type Reconciler struct {
	priority map[string]int
	teams    *TeamRegistry
	leagues  *LeagueRegistry
	logger   *logging.Logger
	sources  map[string][]provider.RawFixture
}

func New(cfg Config, teams *TeamRegistry, logger *logging.Logger) *Reconciler {
	priority := make(map[string]int, len(cfg.ProviderPriority))
	for i, id := range cfg.ProviderPriority {
		priority[id] = i
	}
	if teams == nil {
		teams = NewTeamRegistry(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		priority: priority,
		teams:    teams,
		leagues:  NewLeagueRegistry(cfg.LeagueOverrides),
		logger:   logger,
		sources:  make(map[string][]provider.RawFixture),
	}
}

func (r *Reconciler) Teams() *TeamRegistry     { return r.teams }
func (r *Reconciler) Leagues() *LeagueRegistry { return r.leagues }

// Sources returns the raw records that contributed to a merged match, used
// for provider-scoped follow-up lookups such as odds.
func (r *Reconciler) Sources(matchID string) []provider.RawFixture {
	return r.sources[matchID]
}

// contribution is one provider's view of a match, resolved to canonical ids.
type contribution struct {
	raw      provider.RawFixture
	rank     int
	status   string
	homeID   string
	awayID   string
	leagueID string
}

// Reconcile merges raw fixtures from all providers into canonical matches,
// ordered by ascending kickoff. Conflicting finished scores mark the match
// disputed rather than silently picking a winner.
func (r *Reconciler) Reconcile(raws []provider.RawFixture) ([]match.Match, Report) {
	report := Report{RecordsByProvider: make(map[string]int)}
	groups := make(map[string][]contribution)
	order := make([]string, 0, len(raws))

	for _, raw := range raws {
		report.RecordsByProvider[raw.ProviderID]++
		if raw.HomeTeam == "" || raw.AwayTeam == "" || raw.KickoffUTC.IsZero() {
			report.Rejected++
			r.logger.Warn("rejecting malformed fixture record",
				"provider", raw.ProviderID, "ref", raw.ProviderRef)
			continue
		}

		home := r.teams.Resolve(raw.HomeTeam, raw.HomeCountry, raw.ProviderID)
		away := r.teams.Resolve(raw.AwayTeam, raw.AwayCountry, raw.ProviderID)
		if home.ID == away.ID {
			report.Rejected++
			r.logger.Warn("rejecting self-paired fixture record",
				"provider", raw.ProviderID, "ref", raw.ProviderRef, "team", raw.HomeTeam)
			continue
		}
		lg := r.leagues.Resolve(raw.LeagueName, raw.LeagueCountry, raw.SeasonYear, raw.LeagueTier)

		id := match.Fingerprint(home.ID, away.ID, lg.ID, raw.KickoffUTC)
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], contribution{
			raw:      raw,
			rank:     r.rank(raw.ProviderID),
			status:   match.NormalizeStatus(raw.Status),
			homeID:   home.ID,
			awayID:   away.ID,
			leagueID: lg.ID,
		})
	}

	out := make([]match.Match, 0, len(order))
	for _, id := range order {
		group := groups[id]
		if len(group) > 1 {
			report.MergedDuplicates += len(group) - 1
		}
		merged, ok := r.merge(id, group)
		if !ok {
			report.Rejected++
			continue
		}
		if merged.Disputed {
			report.DisputedIDs = append(report.DisputedIDs, merged.ID)
		}
		for _, c := range group {
			r.sources[merged.ID] = append(r.sources[merged.ID], c.raw)
		}
		out = append(out, merged)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].KickoffUTC.Equal(out[j].KickoffUTC) {
			return out[i].KickoffUTC.Before(out[j].KickoffUTC)
		}
		return out[i].ID < out[j].ID
	})
	report.Matches = len(out)
	return out, report
}

func (r *Reconciler) rank(providerID string) int {
	if rank, ok := r.priority[providerID]; ok {
		return rank
	}
	return len(r.priority) + 1
}

func (r *Reconciler) merge(id string, group []contribution) (match.Match, bool) {
	sort.SliceStable(group, func(i, j int) bool { return group[i].rank < group[j].rank })
	lead := group[0]

	merged := match.Match{
		ID:              id,
		HomeTeamID:      lead.homeID,
		AwayTeamID:      lead.awayID,
		LeagueID:        lead.leagueID,
		KickoffUTC:      lead.raw.KickoffUTC.UTC(),
		Status:          lead.status,
		SourceProviders: contributorIDs(group),
		Provenance:      map[string]string{"kickoff": lead.raw.ProviderID, "status": lead.raw.ProviderID},
	}
	if home, ok := r.teams.byID[lead.homeID]; ok {
		merged.HomeTeam = home.Name
	}
	if away, ok := r.teams.byID[lead.awayID]; ok {
		merged.AwayTeam = away.Name
	}

	// A finished report from any provider outranks a stale scheduled one.
	for _, c := range group {
		if c.status == match.StatusFinished && merged.Status != match.StatusFinished {
			merged.Status = match.StatusFinished
			merged.Provenance["status"] = c.raw.ProviderID
		}
	}

	// Scalar detail fields fall back down the priority order.
	for _, c := range group {
		if merged.Venue == "" && c.raw.Venue != "" {
			merged.Venue = c.raw.Venue
			merged.Provenance["venue"] = c.raw.ProviderID
		}
		if merged.Referee == "" && c.raw.Referee != "" {
			merged.Referee = c.raw.Referee
			merged.Provenance["referee"] = c.raw.ProviderID
		}
	}

	if merged.Status == match.StatusFinished {
		r.mergeScores(&merged, group)
		if merged.HomeScore == nil || merged.AwayScore == nil {
			r.logger.Warn("dropping finished match without scores",
				"match_id", merged.ID, "status_source", merged.Provenance["status"])
			return match.Match{}, false
		}
	}
	if err := merged.Validate(); err != nil {
		r.logger.Warn("dropping inconsistent merged match", "match_id", merged.ID, "error", err.Error())
		return match.Match{}, false
	}
	return merged, true
}

// mergeScores takes scores from the highest-priority finished contribution
// and marks the match disputed when another provider disagrees. Disputed
// matches survive in the log but are excluded from feature computation.
func (r *Reconciler) mergeScores(merged *match.Match, group []contribution) {
	for _, c := range group {
		if c.status != match.StatusFinished || c.raw.HomeScore == nil || c.raw.AwayScore == nil {
			continue
		}
		if merged.HomeScore == nil {
			home, away := *c.raw.HomeScore, *c.raw.AwayScore
			merged.HomeScore = &home
			merged.AwayScore = &away
			merged.Provenance["score"] = c.raw.ProviderID
			continue
		}
		if *merged.HomeScore != *c.raw.HomeScore || *merged.AwayScore != *c.raw.AwayScore {
			merged.Disputed = true
			r.logger.Warn("conflicting finished scores",
				"match_id", merged.ID,
				"kept_provider", merged.Provenance["score"],
				"kept", scoreline(*merged.HomeScore, *merged.AwayScore),
				"conflicting_provider", c.raw.ProviderID,
				"conflicting", scoreline(*c.raw.HomeScore, *c.raw.AwayScore))
		}
	}
}

func scoreline(home, away int) string {
	return strconv.Itoa(home) + "-" + strconv.Itoa(away)
}

// contributorIDs lists each distinct provider in the group once, keeping the
// priority order the group is already sorted in. Agreeing providers stay
// visible downstream even when none of their fields won a conflict.
func contributorIDs(group []contribution) []string {
	seen := make(map[string]struct{}, len(group))
	out := make([]string, 0, len(group))
	for _, c := range group {
		if _, dup := seen[c.raw.ProviderID]; dup {
			continue
		}
		seen[c.raw.ProviderID] = struct{}{}
		out = append(out, c.raw.ProviderID)
	}
	return out
}
