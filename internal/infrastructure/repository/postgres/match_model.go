package postgres

import (
	"database/sql"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/matchsight/matchsight/internal/domain/match"
)

type matchTableModel struct {
	ID              string         `db:"id"`
	Version         int            `db:"version"`
	HomeTeamID      string         `db:"home_team_id"`
	AwayTeamID      string         `db:"away_team_id"`
	HomeTeam        string         `db:"home_team"`
	AwayTeam        string         `db:"away_team"`
	LeagueID        string         `db:"league_id"`
	KickoffUTC      time.Time      `db:"kickoff_utc"`
	Status          string         `db:"status"`
	HomeScore       sql.NullInt64  `db:"home_score"`
	AwayScore       sql.NullInt64  `db:"away_score"`
	Venue           sql.NullString `db:"venue"`
	Referee         sql.NullString `db:"referee"`
	Disputed        bool           `db:"disputed"`
	SourceProviders []byte         `db:"source_providers"`
	Provenance      []byte         `db:"provenance"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (m matchTableModel) toDomain() (match.Match, error) {
	out := match.Match{
		ID:         m.ID,
		Version:    m.Version,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		LeagueID:   m.LeagueID,
		KickoffUTC: m.KickoffUTC.UTC(),
		Status:     m.Status,
		Disputed:   m.Disputed,
		Venue:      m.Venue.String,
		Referee:    m.Referee.String,
	}
	if m.HomeScore.Valid {
		v := int(m.HomeScore.Int64)
		out.HomeScore = &v
	}
	if m.AwayScore.Valid {
		v := int(m.AwayScore.Int64)
		out.AwayScore = &v
	}
	if len(m.SourceProviders) > 0 {
		if err := sonic.Unmarshal(m.SourceProviders, &out.SourceProviders); err != nil {
			return match.Match{}, err
		}
	}
	if len(m.Provenance) > 0 {
		if err := sonic.Unmarshal(m.Provenance, &out.Provenance); err != nil {
			return match.Match{}, err
		}
	}
	return out, nil
}

func provenanceJSON(provenance map[string]string) ([]byte, error) {
	if len(provenance) == 0 {
		return []byte("{}"), nil
	}
	return sonic.ConfigStd.Marshal(provenance)
}

func sourceProvidersJSON(providers []string) ([]byte, error) {
	if len(providers) == 0 {
		return []byte("[]"), nil
	}
	return sonic.ConfigStd.Marshal(providers)
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
