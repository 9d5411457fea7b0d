package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/matchsight/matchsight/internal/domain/team"
	qb "github.com/matchsight/matchsight/internal/platform/querybuilder"
)

type teamTableModel struct {
	ID      string         `db:"id"`
	Name    string         `db:"name"`
	Country sql.NullString `db:"country"`
}

type aliasTableModel struct {
	TeamID     string `db:"team_id"`
	RawName    string `db:"raw_name"`
	ProviderID string `db:"provider_id"`
}

// TeamRepository persists canonical teams and the alias table.
type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team: %w", err)
	}

	out := team.Team{ID: row.ID, Name: row.Name, Country: row.Country.String}
	aliases, err := r.aliasesFor(ctx, teamID)
	if err != nil {
		return team.Team{}, false, err
	}
	for _, alias := range aliases {
		out = out.WithAlias(alias.RawName)
	}
	return out, true, nil
}

func (r *TeamRepository) ListAll(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}
	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	aliasQuery, aliasArgs, err := qb.Select("*").From("team_aliases").OrderBy("team_id", "raw_name").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select aliases query: %w", err)
	}
	var aliasRows []aliasTableModel
	if err := r.db.SelectContext(ctx, &aliasRows, aliasQuery, aliasArgs...); err != nil {
		return nil, fmt.Errorf("select team aliases: %w", err)
	}
	aliasesByTeam := make(map[string][]string)
	for _, row := range aliasRows {
		aliasesByTeam[row.TeamID] = append(aliasesByTeam[row.TeamID], row.RawName)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		item := team.Team{ID: row.ID, Name: row.Name, Country: row.Country.String}
		for _, alias := range aliasesByTeam[row.ID] {
			item = item.WithAlias(alias)
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, items []team.Team) error {
	if len(items) == 0 {
		return nil
	}

	builder := qb.InsertInto("teams").Columns("id", "name", "country")
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		builder = builder.Values(item.ID, item.Name, nullString(item.Country))
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, country = COALESCE(EXCLUDED.country, teams.country)").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert teams query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert teams: %w", err)
	}
	return nil
}

func (r *TeamRepository) SaveAlias(ctx context.Context, aliases []team.Alias) error {
	if len(aliases) == 0 {
		return nil
	}

	builder := qb.InsertInto("team_aliases").Columns("team_id", "raw_name", "provider_id")
	for _, alias := range aliases {
		if alias.TeamID == "" || alias.RawName == "" {
			continue
		}
		builder = builder.Values(alias.TeamID, alias.RawName, alias.ProviderID)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (team_id, raw_name) DO NOTHING").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert aliases query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team aliases: %w", err)
	}
	return nil
}

func (r *TeamRepository) aliasesFor(ctx context.Context, teamID string) ([]aliasTableModel, error) {
	query, args, err := qb.Select("*").From("team_aliases").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("raw_name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select aliases query: %w", err)
	}
	var rows []aliasTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select aliases for team: %w", err)
	}
	return rows, nil
}
