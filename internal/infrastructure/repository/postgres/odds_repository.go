package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/matchsight/matchsight/internal/domain/odds"
	qb "github.com/matchsight/matchsight/internal/platform/querybuilder"
)

type oddsTableModel struct {
	MatchID     string          `db:"match_id"`
	Market      string          `db:"market"`
	Selection   string          `db:"selection"`
	Bookmaker   string          `db:"bookmaker"`
	Price       decimal.Decimal `db:"price"`
	ObservedUTC time.Time       `db:"observed_utc"`
}

// OddsRepository keeps the latest observation per (match, market, selection,
// bookmaker); the upsert drops anything older than the stored row.
type OddsRepository struct {
	db *sqlx.DB
}

func NewOddsRepository(db *sqlx.DB) *OddsRepository {
	return &OddsRepository{db: db}
}

func (r *OddsRepository) Save(ctx context.Context, items []odds.Observation) error {
	if len(items) == 0 {
		return nil
	}

	builder := qb.InsertInto("odds_observations").
		Columns("match_id", "market", "selection", "bookmaker", "price", "observed_utc")
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("save odds: %w", err)
		}
		builder = builder.Values(item.MatchID, item.Market, item.Selection, item.Bookmaker,
			item.Price, item.ObservedUTC.UTC())
	}
	query, args, err := builder.
		Suffix(`ON CONFLICT (match_id, market, selection, bookmaker)
DO UPDATE SET price = EXCLUDED.price, observed_utc = EXCLUDED.observed_utc
WHERE EXCLUDED.observed_utc >= odds_observations.observed_utc`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert odds query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert odds: %w", err)
	}
	return nil
}

func (r *OddsRepository) ListByMatch(ctx context.Context, matchID string) ([]odds.Observation, error) {
	query, args, err := qb.Select("*").From("odds_observations").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("market", "selection", "bookmaker").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select odds query: %w", err)
	}

	var rows []oddsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select odds: %w", err)
	}

	out := make([]odds.Observation, 0, len(rows))
	for _, row := range rows {
		out = append(out, odds.Observation{
			MatchID:     row.MatchID,
			Market:      row.Market,
			Selection:   row.Selection,
			Bookmaker:   row.Bookmaker,
			Price:       row.Price,
			ObservedUTC: row.ObservedUTC.UTC(),
		})
	}
	return out, nil
}
