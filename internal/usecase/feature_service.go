package usecase

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/matchsight/matchsight/internal/domain/feature"
	"github.com/matchsight/matchsight/internal/domain/match"
	"github.com/matchsight/matchsight/internal/domain/odds"
	"github.com/matchsight/matchsight/internal/platform/cache"
	"github.com/matchsight/matchsight/internal/platform/logging"
)

const (
	defaultFormWindow     = 10
	defaultH2HWindow      = 5
	defaultBaselineWindow = 100

	// Momentum compares a short burst against the longer form window.
	momentumShortWindow = 3
	momentumLongWindow  = 10
)

type FeatureConfig struct {
	FormWindow     int
	H2HWindow      int
	BaselineWindow int
}

func (c FeatureConfig) normalized() FeatureConfig {
	if c.FormWindow <= 0 {
		c.FormWindow = defaultFormWindow
	}
	if c.H2HWindow <= 0 {
		c.H2HWindow = defaultH2HWindow
	}
	if c.BaselineWindow <= 0 {
		c.BaselineWindow = defaultBaselineWindow
	}
	return c
}

// FeatureService derives the deterministic feature vector for a match from
// the finished history strictly before its kickoff. Vectors are cached under
// (match id, schema version, cutoff) and never expire: inputs before a
// finished cutoff are immutable.
type FeatureService struct {
	matchRepo match.Repository
	oddsRepo  odds.Repository
	store     *cache.Store
	cfg       FeatureConfig
	logger    *logging.Logger
}

func NewFeatureService(
	matchRepo match.Repository,
	oddsRepo odds.Repository,
	store *cache.Store,
	cfg FeatureConfig,
	logger *logging.Logger,
) *FeatureService {
	if store == nil {
		store = cache.NewStore(0)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FeatureService{
		matchRepo: matchRepo,
		oddsRepo:  oddsRepo,
		store:     store,
		cfg:       cfg.normalized(),
		logger:    logger,
	}
}

// Compute returns the feature vector for the target match at its kickoff
// cutoff. drawRateForLeague and similar league inputs come from the vector's
// embedded baseline.
func (s *FeatureService) Compute(ctx context.Context, target match.Match) (feature.Vector, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeatureService.Compute")
	defer span.End()

	if target.HomeTeamID == "" || target.AwayTeamID == "" || target.KickoffUTC.IsZero() {
		return feature.Vector{}, crerr.Wrapf(ErrInvalidInput, "feature compute for match %q", target.ID)
	}

	key := fmt.Sprintf("feature:%s:%d:%s",
		target.ID, feature.SchemaVersion, target.KickoffUTC.UTC().Format(time.RFC3339))
	value, err := s.store.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.build(ctx, target)
	})
	if err != nil {
		return feature.Vector{}, err
	}
	vector, ok := value.(feature.Vector)
	if !ok {
		return feature.Vector{}, crerr.Newf("feature cache holds %T under %s", value, key)
	}
	return vector, nil
}

func (s *FeatureService) build(ctx context.Context, target match.Match) (feature.Vector, error) {
	cutoff := target.KickoffUTC.UTC()
	history, err := s.matchRepo.ListFinishedBefore(ctx, cutoff)
	if err != nil {
		return feature.Vector{}, crerr.Wrapf(err, "load history before %s", cutoff.Format(time.RFC3339))
	}

	baseline := s.leagueBaseline(target.LeagueID, cutoff, history)

	homeHistory := matchesOfTeam(history, target.HomeTeamID)
	awayHistory := matchesOfTeam(history, target.AwayTeamID)

	homeForm := s.teamForm(target.HomeTeamID, cutoff, homeHistory, baseline)
	awayForm := s.teamForm(target.AwayTeamID, cutoff, awayHistory, baseline)

	vector := feature.Vector{
		MatchID:       target.ID,
		SchemaVersion: feature.SchemaVersion,
		CutoffUTC:     cutoff,
		HomeForm:      homeForm,
		AwayForm:      awayForm,
		H2H:           s.headToHead(target, history),
		Baseline:      baseline,
		HomeMomentum:  momentum(target.HomeTeamID, homeHistory),
		AwayMomentum:  momentum(target.AwayTeamID, awayHistory),
		Reliability: reliability(
			homeForm.Overall.Matches, awayForm.Overall.Matches, s.cfg.FormWindow),
	}

	if s.oddsRepo != nil {
		observations, err := s.oddsRepo.ListByMatch(ctx, target.ID)
		if err != nil {
			return feature.Vector{}, crerr.Wrapf(err, "load odds for match %s", target.ID)
		}
		vector.Implied, vector.Margin = impliedProbabilities(observations)
	}
	return vector, nil
}

// teamForm aggregates the last N finished matches of one team before the
// cutoff. Teams with under three observations have their strength softened
// toward the league baseline by min(observed/N, 1).
func (s *FeatureService) teamForm(teamID string, cutoff time.Time, teamHistory []match.Match, baseline feature.LeagueBaseline) feature.TeamForm {
	window := lastN(teamHistory, s.cfg.FormWindow)

	form := feature.TeamForm{TeamID: teamID, AsOfUTC: cutoff}
	for _, m := range window {
		outcome := outcomeFor(m, teamID)
		form.Overall = accumulate(form.Overall, outcome)
		if m.HomeTeamID == teamID {
			form.Home = accumulate(form.Home, outcome)
		} else {
			form.Away = accumulate(form.Away, outcome)
		}
	}

	raw := rawStrength(form.Overall)
	if form.Overall.Matches < 3 {
		weight := confidenceWeight(form.Overall.Matches, s.cfg.FormWindow)
		raw = weight*raw + (1-weight)*baselineStrength(baseline)
	}
	form.Strength = clamp(raw, 0.1, 0.9)
	return form
}

func (s *FeatureService) headToHead(target match.Match, history []match.Match) feature.HeadToHead {
	h2h := feature.HeadToHead{
		HomeTeamID: target.HomeTeamID,
		AwayTeamID: target.AwayTeamID,
		AsOfUTC:    target.KickoffUTC.UTC(),
	}

	var meetings []match.Match
	for _, m := range history {
		samePair := (m.HomeTeamID == target.HomeTeamID && m.AwayTeamID == target.AwayTeamID) ||
			(m.HomeTeamID == target.AwayTeamID && m.AwayTeamID == target.HomeTeamID)
		if samePair {
			meetings = append(meetings, m)
		}
	}
	meetings = lastN(meetings, s.cfg.H2HWindow)

	totalGoals := 0
	for _, m := range meetings {
		h2h.Meetings++
		totalGoals += *m.HomeScore + *m.AwayScore
		switch winnerOf(m) {
		case target.HomeTeamID:
			h2h.HomeWins++
		case target.AwayTeamID:
			h2h.AwayWins++
		default:
			h2h.Draws++
		}
	}
	if h2h.Meetings > 0 {
		h2h.AvgTotalGoals = float64(totalGoals) / float64(h2h.Meetings)
	}
	return h2h
}

func (s *FeatureService) leagueBaseline(leagueID string, cutoff time.Time, history []match.Match) feature.LeagueBaseline {
	var inLeague []match.Match
	for _, m := range history {
		if m.LeagueID == leagueID {
			inLeague = append(inLeague, m)
		}
	}
	window := lastN(inLeague, s.cfg.BaselineWindow)

	baseline := feature.LeagueBaseline{LeagueID: leagueID, AsOfUTC: cutoff}
	goals, homeWins, draws := 0, 0, 0
	for _, m := range window {
		baseline.Matches++
		goals += *m.HomeScore + *m.AwayScore
		switch {
		case *m.HomeScore > *m.AwayScore:
			homeWins++
		case *m.HomeScore == *m.AwayScore:
			draws++
		}
	}
	if baseline.Matches > 0 {
		total := float64(baseline.Matches)
		baseline.AvgGoals = float64(goals) / total
		baseline.HomeWinRate = float64(homeWins) / total
		baseline.DrawRate = float64(draws) / total
	}
	return baseline
}

// impliedProbabilities strips the bookmaker margin per market: raw 1/odd
// values are renormalized to sum to one, and the removed overround is kept
// as a feature of its own.
func impliedProbabilities(observations []odds.Observation) (map[string]map[string]float64, map[string]float64) {
	byMarket := make(map[string][]odds.Observation)
	for _, obs := range observations {
		byMarket[obs.Market] = append(byMarket[obs.Market], obs)
	}

	implied := make(map[string]map[string]float64)
	margins := make(map[string]float64)
	for market, items := range byMarket {
		selections := odds.Selections(market)
		if selections == nil {
			continue
		}

		raw := make(map[string]float64, len(selections))
		sum := 0.0
		complete := true
		for _, selection := range selections {
			best, ok := odds.BestPrice(items, selection)
			if !ok {
				complete = false
				break
			}
			p := 1 / priceFloat(best.Price)
			raw[selection] = p
			sum += p
		}
		// A market missing any selection cannot be renormalized.
		if !complete || sum <= 0 {
			continue
		}

		normalized := make(map[string]float64, len(raw))
		for selection, p := range raw {
			normalized[selection] = p / sum
		}
		implied[market] = normalized
		margins[market] = sum - 1
	}
	if len(implied) == 0 {
		return nil, nil
	}
	return implied, margins
}

func priceFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// momentum is the strength difference between a short recent burst and the
// longer window, a signed scalar in [-1, 1].
func momentum(teamID string, teamHistory []match.Match) float64 {
	short := strengthOverWindow(teamID, lastN(teamHistory, momentumShortWindow))
	long := strengthOverWindow(teamID, lastN(teamHistory, momentumLongWindow))
	return clamp(short-long, -1, 1)
}

func strengthOverWindow(teamID string, window []match.Match) float64 {
	var split feature.Split
	for _, m := range window {
		split = accumulate(split, outcomeFor(m, teamID))
	}
	return clamp(rawStrength(split), 0.1, 0.9)
}

// rawStrength is the form scalar before cold-start softening and clamping.
func rawStrength(s feature.Split) float64 {
	return 0.4*s.WinRate() +
		0.1*s.DrawRate() +
		0.25*minf(s.GoalsForAvg()/3, 1) +
		0.25*maxf(1-s.GoalsAgainstAvg()/3, 0)
}

// baselineStrength maps the league prior onto the strength scale. With no
// league history at all the neutral midpoint is used.
func baselineStrength(b feature.LeagueBaseline) float64 {
	if b.Matches == 0 {
		return 0.5
	}
	perTeamGoals := b.AvgGoals / 2
	winRate := (1 - b.DrawRate) / 2
	return clamp(
		0.4*winRate+
			0.1*b.DrawRate+
			0.25*minf(perTeamGoals/3, 1)+
			0.25*maxf(1-perTeamGoals/3, 0),
		0.1, 0.9)
}

func reliability(homeObserved, awayObserved, window int) float64 {
	return confidenceWeight(homeObserved, window) * confidenceWeight(awayObserved, window)
}

func confidenceWeight(observed, window int) float64 {
	if window <= 0 {
		return 0
	}
	return minf(float64(observed)/float64(window), 1)
}

type teamOutcome struct {
	goalsFor     int
	goalsAgainst int
}

func outcomeFor(m match.Match, teamID string) teamOutcome {
	if m.HomeTeamID == teamID {
		return teamOutcome{goalsFor: *m.HomeScore, goalsAgainst: *m.AwayScore}
	}
	return teamOutcome{goalsFor: *m.AwayScore, goalsAgainst: *m.HomeScore}
}

func accumulate(s feature.Split, o teamOutcome) feature.Split {
	s.Matches++
	s.GoalsFor += o.goalsFor
	s.GoalsAgainst += o.goalsAgainst
	switch {
	case o.goalsFor > o.goalsAgainst:
		s.Wins++
	case o.goalsFor == o.goalsAgainst:
		s.Draws++
	default:
		s.Losses++
	}
	return s
}

func winnerOf(m match.Match) string {
	switch {
	case *m.HomeScore > *m.AwayScore:
		return m.HomeTeamID
	case *m.AwayScore > *m.HomeScore:
		return m.AwayTeamID
	default:
		return ""
	}
}

func matchesOfTeam(history []match.Match, teamID string) []match.Match {
	var out []match.Match
	for _, m := range history {
		if m.HomeTeamID == teamID || m.AwayTeamID == teamID {
			out = append(out, m)
		}
	}
	return out
}

// lastN keeps the newest n entries of an ascending-by-kickoff slice.
func lastN(items []match.Match, n int) []match.Match {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
