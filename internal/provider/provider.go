package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxFixtureWindow = 14 * 24 * time.Hour
	MaxResultWindow  = 31 * 24 * time.Hour
)

// Window is a UTC date range for fixture/result listing.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Validate(max time.Duration) error {
	if w.From.IsZero() || w.To.IsZero() {
		return fmt.Errorf("window: missing bounds")
	}
	if !w.To.After(w.From) {
		return fmt.Errorf("window: to must be after from")
	}
	if w.To.Sub(w.From) > max {
		return fmt.Errorf("window: span %s exceeds maximum %s", w.To.Sub(w.From), max)
	}
	return nil
}

// RawFixture is one upstream fixture or finished-match record normalized to
// the internal field names. Raw team names keep diacritics and suffixes; the
// reconciler owns canonicalization. Missing optional fields stay nil/empty,
// never defaulted.
type RawFixture struct {
	ProviderID    string
	ProviderRef   string // provider's own event id, used for odds lookups
	HomeTeam      string
	AwayTeam      string
	HomeCountry   string
	AwayCountry   string
	LeagueName    string
	LeagueCountry string
	LeagueTier    int
	SeasonYear    int
	KickoffUTC    time.Time
	Status        string
	HomeScore     *int
	AwayScore     *int
	Venue         string
	Referee       string
}

// RawOdds is one bookmaker price observation from an upstream odds feed.
type RawOdds struct {
	ProviderID  string
	Bookmaker   string
	Market      string
	Selection   string
	Price       decimal.Decimal
	ObservedUTC time.Time
}

// Client is the uniform adapter contract. One implementation per upstream;
// adapters share no state and never leak provider-specific semantics.
type Client interface {
	ID() string
	// ListFixtures returns scheduled fixtures inside a UTC window of at most
	// 14 days, ordered by kickoff.
	ListFixtures(ctx context.Context, window Window) ([]RawFixture, error)
	// ListResults returns finished matches with scores inside a UTC window of
	// at most 31 days, ordered by kickoff.
	ListResults(ctx context.Context, window Window) ([]RawFixture, error)
	// ListOdds returns the current per-selection odds snapshot for a fixture
	// previously returned by this adapter, or ErrOddsNotCovered.
	ListOdds(ctx context.Context, fixture RawFixture) ([]RawOdds, error)
}
