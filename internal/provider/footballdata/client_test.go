package footballdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/matchsight/matchsight/internal/provider"
)

const matchesPayload = `{
  "matches": [
    {
      "id": 501,
      "utcDate": "2026-08-29T15:00:00Z",
      "status": "TIMED",
      "venue": "Test Ground",
      "competition": {"name": "Premier League"},
      "area": {"name": "England"},
      "season": {"startDate": "2026-08-01"},
      "homeTeam": {"name": "Alpha FC"},
      "awayTeam": {"name": "Beta FC"},
      "referees": [{"name": "M. Oliver"}],
      "score": {"fullTime": {"home": null, "away": null}}
    },
    {
      "id": 502,
      "utcDate": "2026-08-25T12:30:00Z",
      "status": "FINISHED",
      "competition": {"name": "Premier League"},
      "area": {"name": "England"},
      "season": {"startDate": "2026-08-01"},
      "homeTeam": {"name": "Gamma FC"},
      "awayTeam": {"name": "Delta FC"},
      "referees": [],
      "score": {"fullTime": {"home": 2, "away": 1}}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(provider.HTTPConfig{
		ProviderID:        "football-data",
		BaseURL:           srv.URL,
		Timeout:           2 * time.Second,
		RequestsPerMinute: 60000,
	}, "test-token")
}

func testWindow() provider.Window {
	return provider.Window{
		From: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestListFixtures_MapsMatches(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matches" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("dateFrom") != "2026-08-24" {
			t.Errorf("dateFrom = %s", r.URL.Query().Get("dateFrom"))
		}
		_, _ = w.Write([]byte(matchesPayload))
	})

	out, err := client.ListFixtures(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("list fixtures: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("fixtures = %d, want 2", len(out))
	}

	scheduled := out[0]
	if scheduled.ProviderRef != "501" || scheduled.HomeTeam != "Alpha FC" {
		t.Fatalf("mapping: %+v", scheduled)
	}
	if scheduled.SeasonYear != 2026 || scheduled.LeagueCountry != "England" {
		t.Fatalf("league context lost: %+v", scheduled)
	}
	if scheduled.Referee != "M. Oliver" || scheduled.HomeScore != nil {
		t.Fatalf("detail fields: %+v", scheduled)
	}

	finished := out[1]
	if finished.HomeScore == nil || *finished.HomeScore != 2 || *finished.AwayScore != 1 {
		t.Fatalf("finished scores lost: %+v", finished)
	}
}

func TestListOdds_NeverCovered(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("odds lookup must not hit the network")
	})
	_, err := client.ListOdds(context.Background(), provider.RawFixture{ProviderRef: "501"})
	if !crerr.Is(err, provider.ErrOddsNotCovered) {
		t.Fatalf("err = %v, want odds not covered", err)
	}
}

func TestListFixtures_ForbiddenSurfacesTyped(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := client.ListFixtures(context.Background(), testWindow())
	if !crerr.Is(err, provider.ErrIPNotWhitelisted) {
		t.Fatalf("err = %v, want ip not whitelisted", err)
	}
}
