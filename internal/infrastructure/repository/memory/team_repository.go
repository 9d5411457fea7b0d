package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/matchsight/matchsight/internal/domain/team"
)

// TeamRepository holds canonical teams and the alias table.
type TeamRepository struct {
	mu      sync.RWMutex
	teams   map[string]team.Team
	aliases []team.Alias
}

func NewTeamRepository(seed []team.Team) *TeamRepository {
	teams := make(map[string]team.Team, len(seed))
	for _, item := range seed {
		teams[item.ID] = item
	}
	return &TeamRepository{teams: teams}
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.teams[teamID]
	return item, ok, nil
}

func (r *TeamRepository) ListAll(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	for _, item := range r.teams {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TeamRepository) Upsert(_ context.Context, items []team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		r.teams[item.ID] = item
	}
	return nil
}

func (r *TeamRepository) SaveAlias(_ context.Context, items []team.Alias) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.TeamID == "" || item.RawName == "" {
			continue
		}
		if r.hasAliasLocked(item) {
			continue
		}
		r.aliases = append(r.aliases, item)
	}
	return nil
}

func (r *TeamRepository) ListAliases(_ context.Context) ([]team.Alias, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]team.Alias(nil), r.aliases...), nil
}

func (r *TeamRepository) hasAliasLocked(candidate team.Alias) bool {
	for _, item := range r.aliases {
		if item.TeamID == candidate.TeamID && strings.EqualFold(item.RawName, candidate.RawName) {
			return true
		}
	}
	return false
}
