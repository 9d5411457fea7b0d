// Package emit serializes predictions into the record consumed by the
// notification layer. The record layout is the only outward surface of the
// pipeline; notifiers never mutate it.
package emit

import (
	"context"
	"io"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/matchsight/matchsight/internal/domain/league"
	"github.com/matchsight/matchsight/internal/domain/match"
	"github.com/matchsight/matchsight/internal/domain/prediction"
)

// json matches encoding/json semantics, notably sorted map keys, so that two
// identical cycles serialize byte-identically.
var json = sonic.ConfigStd

type SelectionRecord struct {
	Probability   float64  `json:"probability"`
	FairOdd       float64  `json:"fair_odd"`
	ProviderOdd   *float64 `json:"provider_odd,omitempty"`
	ExpectedValue *float64 `json:"expected_value,omitempty"`
}

type MarketRecord struct {
	Selections     map[string]SelectionRecord `json:"selections"`
	ValueSelection string                     `json:"value_selection,omitempty"`
}

type Record struct {
	MatchID        string                  `json:"match_id"`
	KickoffUTC     string                  `json:"kickoff_utc"`
	HomeTeam       string                  `json:"home_team"`
	AwayTeam       string                  `json:"away_team"`
	League         string                  `json:"league"`
	GeneratedUTC   string                  `json:"generated_utc"`
	Reliability    float64                 `json:"reliability"`
	ConfidenceTier string                  `json:"confidence_tier"`
	Disputed       bool                    `json:"disputed,omitempty"`
	Markets        map[string]MarketRecord `json:"markets"`
	// SourceProviders names every provider that contributed to the match,
	// including those whose fields all lost conflict resolution.
	SourceProviders []string          `json:"source_providers"`
	Provenance      map[string]string `json:"provenance,omitempty"`
}

// FromPrediction flattens a prediction and its match context into the wire
// record. Only ready and degraded predictions should reach this point.
func FromPrediction(m match.Match, lg league.League, p prediction.Prediction) Record {
	record := Record{
		MatchID:         m.ID,
		KickoffUTC:      m.KickoffUTC.UTC().Format(time.RFC3339),
		HomeTeam:        m.HomeTeam,
		AwayTeam:        m.AwayTeam,
		League:          lg.Name,
		GeneratedUTC:    p.GeneratedUTC.UTC().Format(time.RFC3339),
		Reliability:     p.Reliability,
		ConfidenceTier:  p.Tier,
		Disputed:        m.Disputed,
		Markets:         make(map[string]MarketRecord, len(p.Markets)),
		SourceProviders: m.SourceProviders,
		Provenance:      m.Provenance,
	}
	for name, mk := range p.Markets {
		out := MarketRecord{
			Selections:     make(map[string]SelectionRecord, len(mk.Selections)),
			ValueSelection: mk.ValueSelection,
		}
		for selection, sel := range mk.Selections {
			out.Selections[selection] = SelectionRecord{
				Probability:   sel.Probability,
				FairOdd:       sel.FairOdd,
				ProviderOdd:   sel.ProviderOdd,
				ExpectedValue: sel.ExpectedValue,
			}
		}
		record.Markets[name] = out
	}
	return record
}

// Sink receives one record per emitted prediction.
type Sink interface {
	Emit(ctx context.Context, record Record) error
}

// WriterSink writes JSON lines to a single writer. Safe for concurrent use.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Emit(_ context.Context, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return crerr.Wrapf(err, "marshal prediction record %s", record.MatchID)
	}
	payload = append(payload, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(payload); err != nil {
		return crerr.Wrapf(err, "write prediction record %s", record.MatchID)
	}
	return nil
}

// CollectorSink retains records in memory, mainly for tests and the cycle
// report's top-pick summary.
type CollectorSink struct {
	mu      sync.Mutex
	records []Record
}

func NewCollectorSink() *CollectorSink {
	return &CollectorSink{}
}

func (s *CollectorSink) Emit(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *CollectorSink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}
