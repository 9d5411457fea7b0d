package usecase

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matchsight/matchsight/internal/domain/feature"
	"github.com/matchsight/matchsight/internal/domain/league"
	"github.com/matchsight/matchsight/internal/domain/match"
	"github.com/matchsight/matchsight/internal/domain/odds"
	"github.com/matchsight/matchsight/internal/domain/prediction"
	"github.com/matchsight/matchsight/internal/platform/logging"
)

const (
	defaultValueEVThreshold  = 0.05
	defaultHighReliability   = 0.8
	defaultMediumReliability = 0.5

	// Below this reliability the model is mostly prior; the prediction is
	// still emitted but marked degraded and forced to the low tier.
	degradedReliability = 0.3

	// Raw 1X2 scores are clamped here before normalization.
	minRawScore = 0.05
	maxRawScore = 0.85

	// Probability floors and ceilings for the binary markets.
	minBinaryProb = 0.05
	maxBinaryProb = 0.95

	// Binary market intercept/slope pairs against average strength.
	totalsBase, totalsSlope   = 0.4, 0.4
	bttsBase, bttsSlope       = 0.5, 0.3
	cardsBase, cardsSlope     = 0.45, 0.2
	cornersBase, cornersSlope = 0.5, 0.25

	// Draw rate prior when a league has no observed history yet.
	fallbackDrawRate = 0.25
)

type PredictionConfig struct {
	ValueEVThreshold float64
	HighReliability  float64
	MarketsEnabled   []string
}

func (c PredictionConfig) normalized() PredictionConfig {
	if c.ValueEVThreshold <= 0 {
		c.ValueEVThreshold = defaultValueEVThreshold
	}
	if c.HighReliability <= 0 {
		c.HighReliability = defaultHighReliability
	}
	if len(c.MarketsEnabled) == 0 {
		c.MarketsEnabled = odds.AllMarkets()
	}
	return c
}

// PredictionService converts feature vectors into per-market probability
// distributions, fair odds, and expected values. It is a pure computation:
// the same vector, league, and odds always produce the same prediction.
type PredictionService struct {
	cfg    PredictionConfig
	now    func() time.Time
	logger *logging.Logger
}

func NewPredictionService(cfg PredictionConfig, logger *logging.Logger) *PredictionService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PredictionService{
		cfg:    cfg.normalized(),
		now:    time.Now,
		logger: logger,
	}
}

// Predict runs the per-match state machine. Invariant violations yield a
// failed prediction for that match only; the caller continues the cycle.
func (s *PredictionService) Predict(
	ctx context.Context,
	target match.Match,
	lg league.League,
	vector feature.Vector,
	observations []odds.Observation,
) prediction.Prediction {
	_, span := startUsecaseSpan(ctx, "usecase.PredictionService.Predict")
	defer span.End()

	out := prediction.Prediction{
		MatchID:      target.ID,
		GeneratedUTC: s.now().UTC(),
		State:        prediction.StatePending,
		Reliability:  vector.Reliability,
		Markets:      make(map[string]prediction.Market),
	}

	if reason := s.checkInputs(target, vector); reason != "" {
		out.State = prediction.StateFailed
		out.Tier = prediction.TierLow
		out.FailureReason = reason
		out.Markets = nil
		s.logger.Warn("prediction failed", "match_id", target.ID, "reason", reason)
		return out
	}

	out.Tier = s.tier(vector.Reliability, lg.Tier)
	bestByMarket := bestPrices(observations)

	for _, marketName := range s.cfg.MarketsEnabled {
		probs := s.marketProbabilities(marketName, lg, vector)
		if probs == nil {
			continue
		}
		mk := s.priceMarket(marketName, probs, bestByMarket[marketName], out.Tier)
		if !mk.CheckNormalized() {
			out.State = prediction.StateFailed
			out.Tier = prediction.TierLow
			out.FailureReason = "market " + marketName + " failed normalization"
			out.Markets = nil
			return out
		}
		out.Markets[marketName] = mk
	}

	if vector.Reliability < degradedReliability {
		out.State = prediction.StateDegraded
		out.Tier = prediction.TierLow
		return out
	}
	out.State = prediction.StateReady
	return out
}

func (s *PredictionService) checkInputs(target match.Match, vector feature.Vector) string {
	switch {
	case vector.MatchID != target.ID:
		return "feature vector belongs to a different match"
	case vector.SchemaVersion != feature.SchemaVersion:
		return "feature vector has a stale schema version"
	case !vector.CutoffUTC.Equal(target.KickoffUTC.UTC()):
		return "feature cutoff does not match kickoff"
	case target.HomeTeamID == target.AwayTeamID:
		return "home and away team are identical"
	case vector.HomeForm.Strength < 0.1 || vector.HomeForm.Strength > 0.9,
		vector.AwayForm.Strength < 0.1 || vector.AwayForm.Strength > 0.9:
		return "strength outside documented range"
	}
	return ""
}

// tier is a pure function of reliability and league tier, never of the
// model's own output magnitude.
func (s *PredictionService) tier(reliability float64, leagueTier int) string {
	switch {
	case reliability >= s.cfg.HighReliability && leagueTier <= 2 && leagueTier > 0:
		return prediction.TierHigh
	case reliability >= defaultMediumReliability:
		return prediction.TierMedium
	default:
		return prediction.TierLow
	}
}

func (s *PredictionService) marketProbabilities(marketName string, lg league.League, vector feature.Vector) map[string]float64 {
	avgStrength := (vector.HomeForm.Strength + vector.AwayForm.Strength) / 2
	switch marketName {
	case odds.Market1X2:
		return s.probabilities1X2(lg, vector)
	case odds.MarketTotals:
		return binaryMarket(odds.SelectionOver, odds.SelectionUnder, totalsBase+avgStrength*totalsSlope)
	case odds.MarketBTTS:
		return binaryMarket(odds.SelectionYes, odds.SelectionNo, bttsBase+avgStrength*bttsSlope)
	case odds.MarketCards:
		return binaryMarket(odds.SelectionOver, odds.SelectionUnder, cardsBase+avgStrength*cardsSlope)
	case odds.MarketCorners:
		return binaryMarket(odds.SelectionOver, odds.SelectionUnder, cornersBase+avgStrength*cornersSlope)
	default:
		return nil
	}
}

func (s *PredictionService) probabilities1X2(lg league.League, vector feature.Vector) map[string]float64 {
	sH := vector.HomeForm.Strength
	sA := vector.AwayForm.Strength
	h := league.ClampHomeAdvantage(lg.HomeAdvantage)

	drawRate := vector.Baseline.DrawRate
	if vector.Baseline.Matches == 0 {
		drawRate = fallbackDrawRate
	}

	rawHome := clamp(sH+h-sA+0.5, minRawScore, maxRawScore)
	rawAway := clamp(sA-sH-h+0.5, minRawScore, maxRawScore)
	rawDraw := clamp((1-math.Abs(sH-sA))*drawRate, minRawScore, maxRawScore)

	sum := rawHome + rawDraw + rawAway
	model := map[string]float64{
		odds.SelectionHome: rawHome / sum,
		odds.SelectionDraw: rawDraw / sum,
		odds.SelectionAway: rawAway / sum,
	}

	implied, ok := vector.Implied[odds.Market1X2]
	if !ok {
		return model
	}
	// Both distributions are normalized, so the blend is too.
	blended := make(map[string]float64, len(model))
	for selection, p := range model {
		blended[selection] = vector.Reliability*p + (1-vector.Reliability)*implied[selection]
	}
	return blended
}

func binaryMarket(first, second string, firstProb float64) map[string]float64 {
	p := clamp(firstProb, minBinaryProb, maxBinaryProb)
	return map[string]float64{first: p, second: 1 - p}
}

// priceMarket attaches fair odds, provider odds, and expected values. Cards
// and corners never qualify as value bets: their inputs are the weakest, so
// they inherit the lowest tier for value purposes.
func (s *PredictionService) priceMarket(
	marketName string,
	probs map[string]float64,
	best map[string]odds.Observation,
	predictionTier string,
) prediction.Market {
	effectiveTier := predictionTier
	if marketName == odds.MarketCards || marketName == odds.MarketCorners {
		effectiveTier = prediction.TierLow
	}

	mk := prediction.Market{Selections: make(map[string]prediction.Selection, len(probs))}
	bestEV := math.Inf(-1)
	for selection, p := range probs {
		sel := prediction.Selection{
			Probability: p,
			FairOdd:     1 / p,
		}
		if obs, ok := best[selection]; ok {
			providerOdd := priceFloat(obs.Price)
			ev := expectedValue(p, obs.Price)
			sel.ProviderOdd = &providerOdd
			sel.ExpectedValue = &ev
			if ev >= s.cfg.ValueEVThreshold && effectiveTier != prediction.TierLow {
				sel.ValueBet = true
				if ev > bestEV {
					bestEV = ev
					mk.ValueSelection = selection
				}
			}
		}
		mk.Selections[selection] = sel
	}
	return mk
}

// expectedValue computes probability * provider_odd - 1 in decimal space to
// keep the threshold comparison free of binary float drift.
func expectedValue(probability float64, price decimal.Decimal) float64 {
	ev := decimal.NewFromFloat(probability).Mul(price).Sub(decimal.NewFromInt(1))
	return ev.InexactFloat64()
}

// bestPrices reduces raw observations to the best latest price per market and
// selection.
func bestPrices(observations []odds.Observation) map[string]map[string]odds.Observation {
	byMarket := make(map[string][]odds.Observation)
	for _, obs := range observations {
		byMarket[obs.Market] = append(byMarket[obs.Market], obs)
	}

	out := make(map[string]map[string]odds.Observation, len(byMarket))
	for market, items := range byMarket {
		selections := odds.Selections(market)
		if selections == nil {
			continue
		}
		perSelection := make(map[string]odds.Observation)
		for _, selection := range selections {
			if best, ok := odds.BestPrice(items, selection); ok {
				perSelection[selection] = best
			}
		}
		if len(perSelection) > 0 {
			out[market] = perSelection
		}
	}
	return out
}
