// Package apifootball adapts the API-Football v3 feed. Access control is an
// API-key request header; naive timestamps are interpreted in the provider's
// declared timezone.
package apifootball

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

const (
	DefaultBaseURL = "https://v3.football.api-sports.io"
	authHeader     = "x-apisports-key"
)

type Client struct {
	core    *provider.HTTPCore
	baseURL string
	apiKey  string
	id      string
}

func New(cfg provider.HTTPConfig, apiKey string) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ProviderID == "" {
		cfg.ProviderID = "api-football"
	}
	return &Client{
		core:    provider.NewHTTPCore(cfg),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		id:      cfg.ProviderID,
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) ListFixtures(ctx context.Context, window provider.Window) ([]provider.RawFixture, error) {
	if err := window.Validate(provider.MaxFixtureWindow); err != nil {
		return nil, err
	}
	return c.listFixtures(ctx, window, false)
}

func (c *Client) ListResults(ctx context.Context, window provider.Window) ([]provider.RawFixture, error) {
	if err := window.Validate(provider.MaxResultWindow); err != nil {
		return nil, err
	}
	return c.listFixtures(ctx, window, true)
}

func (c *Client) listFixtures(ctx context.Context, window provider.Window, finishedOnly bool) ([]provider.RawFixture, error) {
	values := url.Values{}
	values.Set("from", window.From.UTC().Format("2006-01-02"))
	values.Set("to", window.To.UTC().Format("2006-01-02"))
	if finishedOnly {
		values.Set("status", "FT-AET-PEN")
	}

	raw, err := c.get(ctx, "/fixtures", values)
	if err != nil {
		return nil, err
	}

	var envelope fixturesEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode fixtures payload: %w", err)
	}

	out := make([]provider.RawFixture, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		mapped, err := c.mapFixture(item)
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

func (c *Client) ListOdds(ctx context.Context, fixture provider.RawFixture) ([]provider.RawOdds, error) {
	if fixture.ProviderRef == "" {
		return nil, provider.ErrOddsNotCovered
	}
	values := url.Values{}
	values.Set("fixture", fixture.ProviderRef)

	raw, err := c.get(ctx, "/odds", values)
	if err != nil {
		return nil, err
	}

	var envelope oddsEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode odds payload: %w", err)
	}
	if len(envelope.Response) == 0 {
		return nil, provider.ErrOddsNotCovered
	}

	observed := time.Now().UTC()
	var out []provider.RawOdds
	for _, entry := range envelope.Response {
		for _, bookmaker := range entry.Bookmakers {
			for _, bet := range bookmaker.Bets {
				market, ok := mapMarket(bet.Name)
				if !ok {
					continue
				}
				for _, value := range bet.Values {
					selection, ok := mapSelection(market, value.Value)
					if !ok {
						continue
					}
					price, err := value.decimalOdd()
					if err != nil {
						continue
					}
					out = append(out, provider.RawOdds{
						ProviderID:  c.id,
						Bookmaker:   bookmaker.Name,
						Market:      market,
						Selection:   selection,
						Price:       price,
						ObservedUTC: observed,
					})
				}
			}
		}
	}
	return out, nil
}

func (c *Client) mapFixture(item fixtureItem) (provider.RawFixture, error) {
	kickoff, err := parseKickoff(item.Fixture.Date, c.core.Timezone())
	if err != nil {
		return provider.RawFixture{}, fmt.Errorf("fixture %d: %w", item.Fixture.ID, err)
	}

	out := provider.RawFixture{
		ProviderID:    c.id,
		ProviderRef:   fmt.Sprintf("%d", item.Fixture.ID),
		HomeTeam:      strings.TrimSpace(item.Teams.Home.Name),
		AwayTeam:      strings.TrimSpace(item.Teams.Away.Name),
		LeagueName:    strings.TrimSpace(item.League.Name),
		LeagueCountry: strings.TrimSpace(item.League.Country),
		SeasonYear:    item.League.Season,
		KickoffUTC:    kickoff,
		Status:        item.Fixture.Status.Short,
		Venue:         strings.TrimSpace(item.Fixture.Venue.Name),
		Referee:       strings.TrimSpace(item.Fixture.Referee),
	}
	// Scores only on finished records; the upstream zero-fills in-play goals.
	if isFinishedShort(item.Fixture.Status.Short) {
		out.HomeScore = item.Goals.Home
		out.AwayScore = item.Goals.Away
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}
	return provider.DoWithRetry(ctx, c.core.Logger(), c.id+" "+path, func() ([]byte, error) {
		return c.core.Get(ctx, fullURL, func(req *http.Request) {
			req.Header.Set(authHeader, c.apiKey)
		})
	})
}

// parseKickoff accepts the upstream's RFC3339 form and falls back to naive
// local time in the declared provider timezone.
func parseKickoff(raw, tz string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	naive, err := time.Parse("2006-01-02 15:04", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable kickoff %q", raw)
	}
	if tz == "" {
		tz = "UTC"
	}
	return provider.ToUTC(naive.Year(), naive.Month(), naive.Day(), naive.Hour(), naive.Minute(), tz)
}

func isFinishedShort(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func mapMarket(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "match winner", "1x2", "full time result":
		return "1x2", true
	case "goals over/under", "over/under":
		return "totals", true
	case "both teams score", "both teams to score":
		return "btts", true
	case "cards over/under", "total cards":
		return "cards", true
	case "corners over under", "corners over/under", "total corners":
		return "corners", true
	default:
		return "", false
	}
}

func mapSelection(market, value string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch market {
	case "1x2":
		switch v {
		case "home", "1":
			return "home", true
		case "draw", "x":
			return "draw", true
		case "away", "2":
			return "away", true
		}
	case "totals":
		switch v {
		case "over 2.5":
			return "over", true
		case "under 2.5":
			return "under", true
		}
	case "btts":
		switch v {
		case "yes":
			return "yes", true
		case "no":
			return "no", true
		}
	case "cards":
		switch v {
		case "over 3.5":
			return "over", true
		case "under 3.5":
			return "under", true
		}
	case "corners":
		switch v {
		case "over 10.5":
			return "over", true
		case "under 10.5":
			return "under", true
		}
	}
	return "", false
}
