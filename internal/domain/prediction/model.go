package prediction

import (
	"math"
	"time"
)

const (
	StatePending  = "pending"
	StateReady    = "ready"
	StateDegraded = "degraded"
	StateFailed   = "failed"
)

const (
	TierLow    = "low"
	TierMedium = "medium"
	TierHigh   = "high"
)

// ProbabilityTolerance bounds the post-normalization drift allowed within one
// market before the prediction is treated as a programmer error.
const ProbabilityTolerance = 1e-6

// Selection is one priced outcome inside a market.
type Selection struct {
	Probability   float64
	FairOdd       float64
	ProviderOdd   *float64
	ExpectedValue *float64
	ValueBet      bool
}

// Market is a normalized selection->forecast map; probabilities sum to 1
// within ProbabilityTolerance.
type Market struct {
	Selections     map[string]Selection
	ValueSelection string
}

// Prediction is the record handed to notifiers; they never mutate it.
type Prediction struct {
	MatchID      string
	GeneratedUTC time.Time
	State        string
	Tier         string
	Reliability  float64
	Markets      map[string]Market
	// FailureReason is set only when State == failed.
	FailureReason string
}

// CheckNormalized verifies the market invariant: non-negative probabilities
// summing to 1 within tolerance and fair odds >= 1.
func (m Market) CheckNormalized() bool {
	sum := 0.0
	for _, sel := range m.Selections {
		if sel.Probability < 0 || sel.FairOdd < 1.0 {
			return false
		}
		sum += sel.Probability
	}
	return math.Abs(sum-1.0) < ProbabilityTolerance
}
