package apifootball

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/matchsight/matchsight/internal/provider"
)

const fixturesPayload = `{
  "response": [
    {
      "fixture": {
        "id": 9001,
        "date": "2026-08-29T15:00:00+00:00",
        "referee": "A. Taylor",
        "status": {"short": "NS"},
        "venue": {"name": "Test Park"}
      },
      "league": {"id": 39, "name": "Premier League", "country": "England", "season": 2026},
      "teams": {"home": {"name": "Alpha FC"}, "away": {"name": "Beta FC"}},
      "goals": {"home": null, "away": null}
    },
    {
      "fixture": {
        "id": 9002,
        "date": "2026-08-25T12:30:00+00:00",
        "status": {"short": "FT"},
        "venue": {"name": ""}
      },
      "league": {"id": 39, "name": "Premier League", "country": "England", "season": 2026},
      "teams": {"home": {"name": "Gamma FC"}, "away": {"name": "Delta FC"}},
      "goals": {"home": 2, "away": 1}
    },
    {
      "fixture": {
        "id": 9003,
        "date": "2026-09-20T15:00:00+00:00",
        "status": {"short": "NS"},
        "venue": {"name": ""}
      },
      "league": {"id": 39, "name": "Premier League", "country": "England", "season": 2026},
      "teams": {"home": {"name": "Epsilon FC"}, "away": {"name": "Zeta FC"}},
      "goals": {"home": null, "away": null}
    }
  ]
}`

const oddsPayload = `{
  "response": [
    {
      "bookmakers": [
        {
          "name": "TestBook",
          "bets": [
            {
              "name": "Match Winner",
              "values": [
                {"value": "Home", "odd": "2.05"},
                {"value": "Draw", "odd": "3.40"},
                {"value": "Away", "odd": "3.75"}
              ]
            },
            {
              "name": "Goals Over/Under",
              "values": [
                {"value": "Over 2.5", "odd": "1.95"},
                {"value": "Under 2.5", "odd": "1.85"},
                {"value": "Over 4.5", "odd": "5.50"}
              ]
            },
            {
              "name": "Some Exotic Market",
              "values": [{"value": "Whatever", "odd": "9.99"}]
            },
            {
              "name": "Match Winner",
              "values": [{"value": "Home", "odd": "0.80"}]
            }
          ]
        }
      ]
    }
  ]
}`

func testWindow() provider.Window {
	return provider.Window{
		From: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := New(provider.HTTPConfig{
		ProviderID:        "api-football",
		BaseURL:           srv.URL,
		Timeout:           2 * time.Second,
		RequestsPerMinute: 60000,
	}, "test-key")
	return client, srv
}

func TestListFixtures_MapsAndFiltersWindow(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-apisports-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Query().Get("from") != "2026-08-24" || r.URL.Query().Get("to") != "2026-08-31" {
			t.Errorf("window query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(fixturesPayload))
	})

	fixtures, err := client.ListFixtures(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("list fixtures: %v", err)
	}
	// Fixture 9003 kicks off outside the window and must be dropped.
	if len(fixtures) != 2 {
		t.Fatalf("fixtures = %d, want 2", len(fixtures))
	}

	first := fixtures[0]
	if first.ProviderRef != "9001" || first.HomeTeam != "Alpha FC" || first.AwayTeam != "Beta FC" {
		t.Fatalf("unexpected mapping: %+v", first)
	}
	if !first.KickoffUTC.Equal(time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("kickoff = %s", first.KickoffUTC)
	}
	if first.Status != "NS" || first.HomeScore != nil {
		t.Fatalf("scheduled fixture must carry no scores: %+v", first)
	}
	if first.Venue != "Test Park" || first.Referee != "A. Taylor" {
		t.Fatalf("detail fields lost: %+v", first)
	}

	finished := fixtures[1]
	if finished.HomeScore == nil || *finished.HomeScore != 2 || *finished.AwayScore != 1 {
		t.Fatalf("finished fixture must carry scores: %+v", finished)
	}
}

func TestListFixtures_AuthFailureSurfacesTyped(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListFixtures(context.Background(), testWindow())
	if !crerr.Is(err, provider.ErrAuthInvalid) {
		t.Fatalf("err = %v, want auth invalid", err)
	}
}

func TestListOdds_MapsKnownMarketsOnly(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/odds" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("fixture") != "9001" {
			t.Errorf("fixture query = %s", r.URL.Query().Get("fixture"))
		}
		_, _ = w.Write([]byte(oddsPayload))
	})

	out, err := client.ListOdds(context.Background(), provider.RawFixture{ProviderRef: "9001"})
	if err != nil {
		t.Fatalf("list odds: %v", err)
	}

	// Three 1x2 prices plus the 2.5-line totals pair; the exotic market, the
	// 4.5 totals line, and the sub-1.0 odd are all dropped.
	if len(out) != 5 {
		t.Fatalf("odds = %d, want 5: %+v", len(out), out)
	}
	markets := make(map[string]int)
	for _, item := range out {
		markets[item.Market]++
		if item.Bookmaker != "TestBook" {
			t.Fatalf("bookmaker = %s", item.Bookmaker)
		}
	}
	if markets["1x2"] != 3 || markets["totals"] != 2 {
		t.Fatalf("markets = %v", markets)
	}
}

func TestListOdds_NoCoverage(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response": []}`))
	})

	_, err := client.ListOdds(context.Background(), provider.RawFixture{ProviderRef: "9001"})
	if !crerr.Is(err, provider.ErrOddsNotCovered) {
		t.Fatalf("err = %v, want odds not covered", err)
	}

	_, err = client.ListOdds(context.Background(), provider.RawFixture{})
	if !crerr.Is(err, provider.ErrOddsNotCovered) {
		t.Fatalf("err = %v, want odds not covered without a provider ref", err)
	}
}

func TestParseKickoff_NaiveFallsBackToProviderZone(t *testing.T) {
	t.Parallel()

	got, err := parseKickoff("2026-07-01 16:00", "Europe/Berlin")
	if err != nil {
		t.Fatalf("parse kickoff: %v", err)
	}
	want := time.Date(2026, 7, 1, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}
