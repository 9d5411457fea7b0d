package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/matchsight/matchsight/internal/domain/match"
	qb "github.com/matchsight/matchsight/internal/platform/querybuilder"
)

// MatchRepository is the Postgres-backed append-only match log.
type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Append(ctx context.Context, item match.Match) (match.Match, error) {
	if err := item.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("append match: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.Match{}, fmt.Errorf("begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var latest matchTableModel
	hasLatest := true
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", item.ID)).
		OrderBy("version DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, fmt.Errorf("build select latest version query: %w", err)
	}
	if err := tx.GetContext(ctx, &latest, query, args...); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return match.Match{}, fmt.Errorf("select latest version: %w", err)
		}
		hasLatest = false
	}

	item.Version = 1
	if hasLatest {
		if latest.HomeTeamID != item.HomeTeamID || latest.AwayTeamID != item.AwayTeamID {
			return match.Match{}, fmt.Errorf("match %s: version %d changes team pair", item.ID, latest.Version+1)
		}
		item.Version = latest.Version + 1
	}

	provenance, err := provenanceJSON(item.Provenance)
	if err != nil {
		return match.Match{}, fmt.Errorf("marshal provenance: %w", err)
	}
	sources, err := sourceProvidersJSON(item.SourceProviders)
	if err != nil {
		return match.Match{}, fmt.Errorf("marshal source providers: %w", err)
	}

	row := matchTableModel{
		ID:              item.ID,
		Version:         item.Version,
		HomeTeamID:      item.HomeTeamID,
		AwayTeamID:      item.AwayTeamID,
		HomeTeam:        item.HomeTeam,
		AwayTeam:        item.AwayTeam,
		LeagueID:        item.LeagueID,
		KickoffUTC:      item.KickoffUTC.UTC(),
		Status:          item.Status,
		HomeScore:       nullInt(item.HomeScore),
		AwayScore:       nullInt(item.AwayScore),
		Venue:           nullString(item.Venue),
		Referee:         nullString(item.Referee),
		Disputed:        item.Disputed,
		SourceProviders: sources,
		Provenance:      provenance,
		CreatedAt:       time.Now().UTC(),
	}
	query, args, err = qb.InsertModel("matches", row, "")
	if err != nil {
		return match.Match{}, fmt.Errorf("build insert match query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return match.Match{}, fmt.Errorf("insert match version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return match.Match{}, fmt.Errorf("commit append tx: %w", err)
	}
	return item, nil
}

func (r *MatchRepository) Latest(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", matchID)).
		OrderBy("version DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select latest query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select latest match: %w", err)
	}
	out, err := row.toDomain()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("decode match row: %w", err)
	}
	return out, true, nil
}

func (r *MatchRepository) ListFinishedBefore(ctx context.Context, cutoffUTC time.Time) ([]match.Match, error) {
	// DISTINCT ON keeps only the latest version per match id.
	const query = `
SELECT * FROM (
  SELECT DISTINCT ON (id) *
  FROM matches
  ORDER BY id, version DESC
) latest
WHERE status = $1 AND disputed = FALSE AND kickoff_utc < $2
ORDER BY kickoff_utc ASC, id ASC`

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, match.StatusFinished, cutoffUTC.UTC()); err != nil {
		return nil, fmt.Errorf("select finished matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode match row %s/%d: %w", row.ID, row.Version, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *MatchRepository) ListVersions(ctx context.Context, matchID string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", matchID)).
		OrderBy("version ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select versions query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match versions: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode match row %s/%d: %w", row.ID, row.Version, err)
		}
		out = append(out, item)
	}
	return out, nil
}
