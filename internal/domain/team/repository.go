package team

import "context"

// Repository exposes the per-team alias table. Writes happen only at cycle
// boundaries; reads may snapshot concurrently.
type Repository interface {
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	ListAll(ctx context.Context) ([]Team, error)
	Upsert(ctx context.Context, items []Team) error
	SaveAlias(ctx context.Context, aliases []Alias) error
}
