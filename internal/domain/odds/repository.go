package odds

import "context"

// Repository stores odds observations per match. The cache keeps only the
// latest observation per (market, selection, bookmaker); older ones are
// silently dropped.
type Repository interface {
	Save(ctx context.Context, items []Observation) error
	ListByMatch(ctx context.Context, matchID string) ([]Observation, error)
}
