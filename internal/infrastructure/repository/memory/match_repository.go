package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/matchsight/matchsight/internal/domain/match"
)

// MatchRepository is the in-memory append-only match log. Versions are never
// overwritten; a correction appends with a higher version stamp.
type MatchRepository struct {
	mu       sync.RWMutex
	versions map[string][]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{versions: make(map[string][]match.Match)}
}

func (r *MatchRepository) Append(_ context.Context, item match.Match) (match.Match, error) {
	if err := item.Validate(); err != nil {
		return match.Match{}, crerr.Wrap(err, "append match")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.versions[item.ID]
	item.Version = len(existing) + 1
	if len(existing) > 0 {
		latest := existing[len(existing)-1]
		if latest.HomeTeamID != item.HomeTeamID || latest.AwayTeamID != item.AwayTeamID {
			return match.Match{}, crerr.Newf(
				"match %s: version %d changes team pair", item.ID, item.Version)
		}
	}
	r.versions[item.ID] = append(existing, item)
	return item, nil
}

func (r *MatchRepository) Latest(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.versions[matchID]
	if len(versions) == 0 {
		return match.Match{}, false, nil
	}
	return versions[len(versions)-1], true, nil
}

func (r *MatchRepository) ListFinishedBefore(_ context.Context, cutoffUTC time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []match.Match
	for _, versions := range r.versions {
		latest := versions[len(versions)-1]
		if !latest.IsFinished() || latest.Disputed {
			continue
		}
		if !latest.KickoffUTC.Before(cutoffUTC) {
			continue
		}
		out = append(out, latest)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].KickoffUTC.Equal(out[j].KickoffUTC) {
			return out[i].KickoffUTC.Before(out[j].KickoffUTC)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MatchRepository) ListVersions(_ context.Context, matchID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.versions[matchID]
	return append([]match.Match(nil), versions...), nil
}
