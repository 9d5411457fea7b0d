package memory

import (
	"context"
	"sort"
	"sync"

	crerr "github.com/cockroachdb/errors"

	"github.com/matchsight/matchsight/internal/domain/odds"
)

type oddsKey struct {
	matchID   string
	market    string
	selection string
	bookmaker string
}

// OddsRepository keeps the latest observation per (match, market, selection,
// bookmaker). Last writer wins on ObservedUTC; older observations are
// silently dropped.
type OddsRepository struct {
	mu     sync.RWMutex
	latest map[oddsKey]odds.Observation
}

func NewOddsRepository() *OddsRepository {
	return &OddsRepository{latest: make(map[oddsKey]odds.Observation)}
}

func (r *OddsRepository) Save(_ context.Context, items []odds.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return crerr.Wrap(err, "save odds")
		}
		key := oddsKey{item.MatchID, item.Market, item.Selection, item.Bookmaker}
		current, seen := r.latest[key]
		if seen && item.ObservedUTC.Before(current.ObservedUTC) {
			continue
		}
		r.latest[key] = item
	}
	return nil
}

func (r *OddsRepository) ListByMatch(_ context.Context, matchID string) ([]odds.Observation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []odds.Observation
	for key, item := range r.latest {
		if key.matchID == matchID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Market != b.Market {
			return a.Market < b.Market
		}
		if a.Selection != b.Selection {
			return a.Selection < b.Selection
		}
		return a.Bookmaker < b.Bookmaker
	})
	return out, nil
}
