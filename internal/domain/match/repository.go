package match

import (
	"context"
	"time"
)

// Repository is the append-only match log. Corrections append a new version
// with a higher Version stamp; older versions stay readable for audit.
type Repository interface {
	// Append stores a new version of the match. The implementation assigns
	// Version = latest+1 and must reject a version that changes the team
	// pair; kickoff and other fields may move between versions.
	Append(ctx context.Context, item Match) (Match, error)
	// Latest returns the newest version for the fingerprint.
	Latest(ctx context.Context, matchID string) (Match, bool, error)
	// ListFinishedBefore returns latest-version finished, undisputed matches
	// with kickoff strictly before cutoff, ascending by kickoff. This is the
	// point-in-time read the feature engine depends on.
	ListFinishedBefore(ctx context.Context, cutoffUTC time.Time) ([]Match, error)
	// ListVersions returns every stored version of one match, oldest first.
	ListVersions(ctx context.Context, matchID string) ([]Match, error)
}
