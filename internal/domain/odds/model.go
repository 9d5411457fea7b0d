package odds

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Market1X2     = "1x2"
	MarketTotals  = "totals"
	MarketBTTS    = "btts"
	MarketCards   = "cards"
	MarketCorners = "corners"
)

const (
	SelectionHome  = "home"
	SelectionDraw  = "draw"
	SelectionAway  = "away"
	SelectionOver  = "over"
	SelectionUnder = "under"
	SelectionYes   = "yes"
	SelectionNo    = "no"
)

var minDecimalOdd = decimal.NewFromInt(1)

// Observation is one bookmaker price for one selection at one point in time.
// Multiple observations per selection are kept; value computation uses the
// latest per bookmaker.
type Observation struct {
	MatchID     string
	Market      string
	Selection   string
	Bookmaker   string
	Price       decimal.Decimal
	ObservedUTC time.Time
}

// Validate rejects prices below 1.0 at ingest; such a price implies a
// probability above certainty and always signals a provider bug.
func (o Observation) Validate() error {
	if o.MatchID == "" || o.Market == "" || o.Selection == "" || o.Bookmaker == "" {
		return fmt.Errorf("odds observation: missing key fields")
	}
	if o.Price.LessThan(minDecimalOdd) {
		return fmt.Errorf("odds observation %s/%s/%s: price %s below 1.0", o.MatchID, o.Market, o.Selection, o.Price)
	}
	return nil
}

// Selections returns the selection set a market carries.
func Selections(market string) []string {
	switch market {
	case Market1X2:
		return []string{SelectionHome, SelectionDraw, SelectionAway}
	case MarketTotals, MarketCards, MarketCorners:
		return []string{SelectionOver, SelectionUnder}
	case MarketBTTS:
		return []string{SelectionYes, SelectionNo}
	default:
		return nil
	}
}

// AllMarkets lists every market the predictor can produce.
func AllMarkets() []string {
	return []string{Market1X2, MarketTotals, MarketBTTS, MarketCards, MarketCorners}
}

// LatestPerBookmaker reduces a set of observations to the newest price per
// (selection, bookmaker). Older observations are dropped, last writer wins on
// ObservedUTC ties.
func LatestPerBookmaker(items []Observation) map[string]map[string]Observation {
	out := make(map[string]map[string]Observation)
	for _, item := range items {
		byBookmaker, ok := out[item.Selection]
		if !ok {
			byBookmaker = make(map[string]Observation)
			out[item.Selection] = byBookmaker
		}
		current, seen := byBookmaker[item.Bookmaker]
		if !seen || !item.ObservedUTC.Before(current.ObservedUTC) {
			byBookmaker[item.Bookmaker] = item
		}
	}
	return out
}

// BestPrice returns the highest latest price offered for a selection, if any.
func BestPrice(items []Observation, selection string) (Observation, bool) {
	latest := LatestPerBookmaker(items)
	byBookmaker, ok := latest[selection]
	if !ok || len(byBookmaker) == 0 {
		return Observation{}, false
	}
	var best Observation
	found := false
	for _, obs := range byBookmaker {
		if !found || obs.Price.GreaterThan(best.Price) ||
			(obs.Price.Equal(best.Price) && obs.Bookmaker < best.Bookmaker) {
			best = obs
			found = true
		}
	}
	return best, found
}
