// Package footballdata adapts the football-data.org v4 feed. Access control
// is a bearer token. The upstream has no odds product, so ListOdds always
// reports ErrOddsNotCovered.
package footballdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/matchsight/matchsight/internal/provider"
)

const DefaultBaseURL = "https://api.football-data.org/v4"

type Client struct {
	core    *provider.HTTPCore
	baseURL string
	token   string
	id      string
}

func New(cfg provider.HTTPConfig, token string) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ProviderID == "" {
		cfg.ProviderID = "football-data"
	}
	return &Client{
		core:    provider.NewHTTPCore(cfg),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   strings.TrimSpace(token),
		id:      cfg.ProviderID,
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) ListFixtures(ctx context.Context, window provider.Window) ([]provider.RawFixture, error) {
	if err := window.Validate(provider.MaxFixtureWindow); err != nil {
		return nil, err
	}
	return c.listMatches(ctx, window, "SCHEDULED,TIMED")
}

func (c *Client) ListResults(ctx context.Context, window provider.Window) ([]provider.RawFixture, error) {
	if err := window.Validate(provider.MaxResultWindow); err != nil {
		return nil, err
	}
	return c.listMatches(ctx, window, "FINISHED")
}

func (c *Client) ListOdds(_ context.Context, _ provider.RawFixture) ([]provider.RawOdds, error) {
	return nil, provider.ErrOddsNotCovered
}

func (c *Client) listMatches(ctx context.Context, window provider.Window, statuses string) ([]provider.RawFixture, error) {
	values := url.Values{}
	values.Set("dateFrom", window.From.UTC().Format("2006-01-02"))
	values.Set("dateTo", window.To.UTC().Format("2006-01-02"))
	values.Set("status", statuses)

	fullURL := c.baseURL + "/matches?" + values.Encode()
	raw, err := provider.DoWithRetry(ctx, c.core.Logger(), c.id+" /matches", func() ([]byte, error) {
		return c.core.Get(ctx, fullURL, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+c.token)
		})
	})
	if err != nil {
		return nil, err
	}

	var envelope matchesEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode matches payload: %w", err)
	}

	out := make([]provider.RawFixture, 0, len(envelope.Matches))
	for _, item := range envelope.Matches {
		mapped, err := c.mapMatch(item)
		if err != nil {
			return nil, err
		}
		if mapped.KickoffUTC.Before(window.From) || !mapped.KickoffUTC.Before(window.To) {
			continue
		}
		out = append(out, mapped)
	}
	return out, nil
}

func (c *Client) mapMatch(item matchItem) (provider.RawFixture, error) {
	kickoff, err := time.Parse(time.RFC3339, item.UTCDate)
	if err != nil {
		return provider.RawFixture{}, fmt.Errorf("match %d: unparseable utcDate %q", item.ID, item.UTCDate)
	}

	out := provider.RawFixture{
		ProviderID:    c.id,
		ProviderRef:   fmt.Sprintf("%d", item.ID),
		HomeTeam:      strings.TrimSpace(item.HomeTeam.Name),
		AwayTeam:      strings.TrimSpace(item.AwayTeam.Name),
		LeagueName:    strings.TrimSpace(item.Competition.Name),
		LeagueCountry: strings.TrimSpace(item.Area.Name),
		SeasonYear:    item.Season.StartYear(),
		KickoffUTC:    kickoff.UTC(),
		Status:        item.Status,
		Venue:         strings.TrimSpace(item.Venue),
		Referee:       firstRefereeName(item.Referees),
	}
	if strings.EqualFold(item.Status, "FINISHED") {
		out.HomeScore = item.Score.FullTime.Home
		out.AwayScore = item.Score.FullTime.Away
	}
	return out, nil
}

func firstRefereeName(items []refereeItem) string {
	for _, item := range items {
		if name := strings.TrimSpace(item.Name); name != "" {
			return name
		}
	}
	return ""
}
