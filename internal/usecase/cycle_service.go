package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	concpool "github.com/sourcegraph/conc/pool"

	"github.com/matchsight/matchsight/internal/domain/league"
	"github.com/matchsight/matchsight/internal/domain/match"
	"github.com/matchsight/matchsight/internal/domain/odds"
	"github.com/matchsight/matchsight/internal/domain/prediction"
	"github.com/matchsight/matchsight/internal/domain/team"
	"github.com/matchsight/matchsight/internal/emit"
	"github.com/matchsight/matchsight/internal/observability"
	idgen "github.com/matchsight/matchsight/internal/platform/id"
	"github.com/matchsight/matchsight/internal/platform/logging"
	"github.com/matchsight/matchsight/internal/provider"
	"github.com/matchsight/matchsight/internal/reconcile"
)

const (
	defaultCycleTimeout    = 600 * time.Second
	defaultProviderTimeout = 30 * time.Second
	defaultComputeWorkers  = 4
	defaultReportIDLimit   = 20
	defaultTopPickLimit    = 5
)

type CycleConfig struct {
	CycleTimeout    time.Duration
	ProviderTimeout time.Duration
	ComputeWorkers  int
	Reconcile       reconcile.Config
}

func (c CycleConfig) normalized() CycleConfig {
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = defaultCycleTimeout
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = defaultProviderTimeout
	}
	if c.ComputeWorkers <= 0 {
		c.ComputeWorkers = defaultComputeWorkers
	}
	return c
}

// ProviderOutcome is the per-provider line of the cycle report.
type ProviderOutcome struct {
	ProviderID string
	Fixtures   int
	Results    int
	Failed     bool
	AuthFailed bool
	Error      string
}

// TopPick is a value-flagged selection surfaced in the cycle report.
type TopPick struct {
	MatchID       string
	Market        string
	Selection     string
	ExpectedValue float64
}

// CycleReport is handed to downstream consumers after every cycle, completed
// or failed.
type CycleReport struct {
	CycleID     string
	WindowFrom  time.Time
	WindowTo    time.Time
	StartedUTC  time.Time
	FinishedUTC time.Time

	Providers            []ProviderOutcome
	RecordsByProvider    map[string]int
	MatchesCanonicalized int
	MergedDuplicates     int
	RejectedRecords      int

	PredictionsByState map[string]int
	PredictionsByTier  map[string]int

	// ID lists are bounded to keep the report small.
	DisputedIDs []string
	DegradedIDs []string
	FailedIDs   []string

	TopPicks []TopPick
}

// CycleService runs one prediction cycle end to end: parallel provider
// fetches, reconciliation, persistence, feature computation, prediction, and
// emission. One cycle runs at a time.
type CycleService struct {
	providers   []provider.Client
	teamRepo    team.Repository
	matchRepo   match.Repository
	oddsRepo    odds.Repository
	features    *FeatureService
	predictions *PredictionService
	sink        emit.Sink
	metrics     *observability.Metrics
	cfg         CycleConfig
	now         func() time.Time
	ids         idgen.Generator
	logger      *logging.Logger

	runMu sync.Mutex
}

func NewCycleService(
	providers []provider.Client,
	teamRepo team.Repository,
	matchRepo match.Repository,
	oddsRepo odds.Repository,
	features *FeatureService,
	predictions *PredictionService,
	sink emit.Sink,
	metrics *observability.Metrics,
	cfg CycleConfig,
	logger *logging.Logger,
) *CycleService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CycleService{
		providers:   providers,
		teamRepo:    teamRepo,
		matchRepo:   matchRepo,
		oddsRepo:    oddsRepo,
		features:    features,
		predictions: predictions,
		sink:        sink,
		metrics:     metrics,
		cfg:         cfg.normalized(),
		now:         time.Now,
		ids:         idgen.NewUUIDGenerator(),
		logger:      logger,
	}
}

type providerFetch struct {
	providerID string
	fixtures   []provider.RawFixture
	results    []provider.RawFixture
	err        error
}

// RunCycle executes one cycle over the window. It returns an error only when
// the whole cycle fails (no provider data at all); partial degradation is
// reported, not raised.
func (s *CycleService) RunCycle(ctx context.Context, window provider.Window) (CycleReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, span := startUsecaseSpan(ctx, "usecase.CycleService.RunCycle")
	defer span.End()

	started := s.now().UTC()
	report := CycleReport{
		CycleID:            s.ids.NewID(),
		WindowFrom:         window.From.UTC(),
		WindowTo:           window.To.UTC(),
		StartedUTC:         started,
		PredictionsByState: make(map[string]int),
		PredictionsByTier:  make(map[string]int),
	}

	if len(s.providers) == 0 {
		return report, crerr.Wrap(ErrInvalidInput, "no providers configured")
	}
	if err := window.Validate(provider.MaxFixtureWindow); err != nil {
		return report, crerr.Wrap(err, "cycle window")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CycleTimeout)
	defer cancel()

	fetches := s.fetchAll(ctx, window)
	var raws []provider.RawFixture
	anySucceeded := false
	for _, fetch := range fetches {
		outcome := ProviderOutcome{
			ProviderID: fetch.providerID,
			Fixtures:   len(fetch.fixtures),
			Results:    len(fetch.results),
		}
		if fetch.err != nil {
			outcome.Failed = true
			outcome.AuthFailed = provider.IsFatal(fetch.err)
			outcome.Error = fetch.err.Error()
			s.metrics.ProviderFetch(fetch.providerID, "failure")
			s.logger.WarnContext(ctx, "provider degraded for cycle",
				"provider", fetch.providerID, "error", fetch.err.Error())
		} else {
			s.metrics.ProviderFetch(fetch.providerID, "success")
		}
		if len(fetch.fixtures)+len(fetch.results) > 0 || fetch.err == nil {
			anySucceeded = true
		}
		raws = append(raws, fetch.fixtures...)
		raws = append(raws, fetch.results...)
		report.Providers = append(report.Providers, outcome)
	}
	if !anySucceeded {
		report.FinishedUTC = s.now().UTC()
		s.metrics.CycleFinished("failed", report.FinishedUTC.Sub(started))
		return report, crerr.Wrap(ErrDependencyUnavailable, "all providers failed")
	}

	seed, err := s.teamRepo.ListAll(ctx)
	if err != nil {
		return report, crerr.Wrap(err, "load canonical teams")
	}
	reconciler := reconcile.New(s.cfg.Reconcile, reconcile.NewTeamRegistry(seed), s.logger)
	matches, ingest := reconciler.Reconcile(raws)

	report.RecordsByProvider = ingest.RecordsByProvider
	report.MatchesCanonicalized = ingest.Matches
	report.MergedDuplicates = ingest.MergedDuplicates
	report.RejectedRecords = ingest.Rejected
	report.DisputedIDs = bounded(ingest.DisputedIDs, defaultReportIDLimit)
	s.metrics.Disputed(len(ingest.DisputedIDs))

	for _, m := range matches {
		if _, err := s.matchRepo.Append(ctx, m); err != nil {
			report.RejectedRecords++
			s.logger.WarnContext(ctx, "match log rejected record",
				"match_id", m.ID, "error", err.Error())
		}
	}
	// New identities and aliases persist at the cycle boundary only.
	if err := s.teamRepo.Upsert(ctx, reconciler.Teams().Teams()); err != nil {
		return report, crerr.Wrap(err, "persist canonical teams")
	}
	if err := s.teamRepo.SaveAlias(ctx, reconciler.Teams().NewAliases()); err != nil {
		return report, crerr.Wrap(err, "persist team aliases")
	}

	upcoming := make([]match.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status == match.StatusScheduled && !m.Disputed {
			upcoming = append(upcoming, m)
		}
	}

	s.collectOdds(ctx, reconciler, upcoming)

	preds := s.computePredictions(ctx, reconciler, upcoming)
	for i, pred := range preds {
		report.PredictionsByState[pred.State]++
		s.metrics.Prediction(pred.State, pred.Tier)
		switch pred.State {
		case prediction.StateFailed:
			report.FailedIDs = appendBounded(report.FailedIDs, pred.MatchID, defaultReportIDLimit)
			continue
		case prediction.StateDegraded:
			report.DegradedIDs = appendBounded(report.DegradedIDs, pred.MatchID, defaultReportIDLimit)
		}
		report.PredictionsByTier[pred.Tier]++

		lg, _ := reconciler.Leagues().Get(upcoming[i].LeagueID)
		if err := s.sink.Emit(ctx, emit.FromPrediction(upcoming[i], lg, pred)); err != nil {
			s.logger.WarnContext(ctx, "emit failed", "match_id", pred.MatchID, "error", err.Error())
		}
		report.TopPicks = collectTopPicks(report.TopPicks, pred)
	}
	sortTopPicks(report.TopPicks)
	report.TopPicks = boundedPicks(report.TopPicks, defaultTopPickLimit)

	report.FinishedUTC = s.now().UTC()
	s.metrics.CycleFinished("completed", report.FinishedUTC.Sub(started))
	s.logger.InfoContext(ctx, "cycle completed",
		"cycle_id", report.CycleID,
		"matches", report.MatchesCanonicalized,
		"predictions", len(preds),
		"disputed", len(ingest.DisputedIDs),
		"elapsed", report.FinishedUTC.Sub(started).String())
	return report, nil
}

// fetchAll runs fixture and result listing for every provider in parallel.
// Providers do not share rate budget, so there is no cross-provider pacing.
func (s *CycleService) fetchAll(ctx context.Context, window provider.Window) []providerFetch {
	out := make([]providerFetch, len(s.providers))
	p := concpool.New().WithMaxGoroutines(len(s.providers))
	for i, client := range s.providers {
		i, client := i, client
		p.Go(func() {
			out[i] = s.fetchOne(ctx, client, window)
		})
	}
	p.Wait()
	return out
}

func (s *CycleService) fetchOne(ctx context.Context, client provider.Client, window provider.Window) providerFetch {
	fetch := providerFetch{providerID: client.ID()}

	fixtureCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	fixtures, err := client.ListFixtures(fixtureCtx, window)
	cancel()
	if err != nil {
		fetch.err = err
		// Auth failures poison every further call this cycle.
		if provider.IsFatal(err) {
			return fetch
		}
	} else {
		fetch.fixtures = fixtures
	}

	resultCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	results, err := client.ListResults(resultCtx, window)
	cancel()
	if err != nil {
		if fetch.err == nil {
			fetch.err = err
		}
		return fetch
	}
	fetch.results = results
	return fetch
}

// collectOdds asks each contributing provider for current odds per upcoming
// match. Missing coverage is normal; only unexpected failures are logged.
func (s *CycleService) collectOdds(ctx context.Context, reconciler *reconcile.Reconciler, upcoming []match.Match) {
	clients := make(map[string]provider.Client, len(s.providers))
	for _, client := range s.providers {
		clients[client.ID()] = client
	}

	for _, m := range upcoming {
		for _, raw := range reconciler.Sources(m.ID) {
			client, ok := clients[raw.ProviderID]
			if !ok {
				continue
			}
			oddsCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
			rawOdds, err := client.ListOdds(oddsCtx, raw)
			cancel()
			if err != nil {
				if !crerr.Is(err, provider.ErrOddsNotCovered) {
					s.logger.WarnContext(ctx, "odds fetch failed",
						"provider", raw.ProviderID, "match_id", m.ID, "error", err.Error())
				}
				continue
			}

			observations := make([]odds.Observation, 0, len(rawOdds))
			for _, item := range rawOdds {
				observations = append(observations, odds.Observation{
					MatchID:     m.ID,
					Market:      item.Market,
					Selection:   item.Selection,
					Bookmaker:   item.Bookmaker,
					Price:       item.Price,
					ObservedUTC: item.ObservedUTC,
				})
			}
			if err := s.oddsRepo.Save(ctx, observations); err != nil {
				s.logger.WarnContext(ctx, "odds rejected at ingest",
					"provider", raw.ProviderID, "match_id", m.ID, "error", err.Error())
			}
		}
	}
}

// computePredictions runs feature + prediction per upcoming match on a worker
// pool. Output order matches input order regardless of scheduling.
func (s *CycleService) computePredictions(ctx context.Context, reconciler *reconcile.Reconciler, upcoming []match.Match) []prediction.Prediction {
	preds := make([]prediction.Prediction, len(upcoming))
	workerPool, err := ants.NewPool(s.cfg.ComputeWorkers)
	if err != nil {
		s.logger.Error("worker pool unavailable, computing inline", "error", err.Error())
		for i, m := range upcoming {
			preds[i] = s.predictOne(ctx, reconciler, m)
		}
		return preds
	}
	defer workerPool.Release()

	var workers sync.WaitGroup
	for i, m := range upcoming {
		i, m := i, m
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()
			preds[i] = s.predictOne(ctx, reconciler, m)
		}); err != nil {
			workers.Done()
			preds[i] = s.predictOne(ctx, reconciler, m)
		}
	}
	workers.Wait()
	return preds
}

func (s *CycleService) predictOne(ctx context.Context, reconciler *reconcile.Reconciler, m match.Match) prediction.Prediction {
	failed := func(reason string) prediction.Prediction {
		return prediction.Prediction{
			MatchID:       m.ID,
			GeneratedUTC:  s.now().UTC(),
			State:         prediction.StateFailed,
			Tier:          prediction.TierLow,
			FailureReason: reason,
		}
	}

	// Budget exhaustion fails the remainder of the cycle's matches while
	// keeping everything already emitted.
	if err := ctx.Err(); err != nil {
		return failed("cycle budget exhausted")
	}

	vector, err := s.features.Compute(ctx, m)
	if err != nil {
		s.logger.WarnContext(ctx, "feature computation failed",
			"match_id", m.ID, "error", err.Error())
		return failed("feature computation failed: " + err.Error())
	}

	observations, err := s.oddsRepo.ListByMatch(ctx, m.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "odds lookup failed",
			"match_id", m.ID, "error", err.Error())
		observations = nil
	}

	lg, ok := reconciler.Leagues().Get(m.LeagueID)
	if !ok {
		lg = league.League{ID: m.LeagueID, HomeAdvantage: league.DefaultHomeAdvantage, Tier: 4}
	}
	return s.predictions.Predict(ctx, m, lg, vector, observations)
}

func collectTopPicks(picks []TopPick, pred prediction.Prediction) []TopPick {
	for marketName, mk := range pred.Markets {
		if mk.ValueSelection == "" {
			continue
		}
		sel := mk.Selections[mk.ValueSelection]
		if sel.ExpectedValue == nil {
			continue
		}
		picks = append(picks, TopPick{
			MatchID:       pred.MatchID,
			Market:        marketName,
			Selection:     mk.ValueSelection,
			ExpectedValue: *sel.ExpectedValue,
		})
	}
	return picks
}

// sortTopPicks orders by descending expected value with a full
// (match, market, selection) tiebreak. Picks accumulate from map iteration,
// so EV alone would leave tied entries in random order across runs.
func sortTopPicks(picks []TopPick) {
	sort.SliceStable(picks, func(i, j int) bool {
		a, b := picks[i], picks[j]
		if a.ExpectedValue != b.ExpectedValue {
			return a.ExpectedValue > b.ExpectedValue
		}
		if a.MatchID != b.MatchID {
			return a.MatchID < b.MatchID
		}
		if a.Market != b.Market {
			return a.Market < b.Market
		}
		return a.Selection < b.Selection
	})
}

func bounded(ids []string, limit int) []string {
	if len(ids) <= limit {
		return ids
	}
	return ids[:limit]
}

func appendBounded(ids []string, id string, limit int) []string {
	if len(ids) >= limit {
		return ids
	}
	return append(ids, id)
}

func boundedPicks(picks []TopPick, limit int) []TopPick {
	if len(picks) <= limit {
		return picks
	}
	return picks[:limit]
}
