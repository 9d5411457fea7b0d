package apifootball

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type fixturesEnvelope struct {
	Response []fixtureItem `json:"response"`
}

type fixtureItem struct {
	Fixture struct {
		ID      int64  `json:"id"`
		Date    string `json:"date"`
		Referee string `json:"referee"`
		Status  struct {
			Short string `json:"short"`
		} `json:"status"`
		Venue struct {
			Name string `json:"name"`
		} `json:"venue"`
	} `json:"fixture"`
	League struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Season  int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type oddsEnvelope struct {
	Response []oddsItem `json:"response"`
}

type oddsItem struct {
	Bookmakers []struct {
		Name string `json:"name"`
		Bets []struct {
			Name   string `json:"name"`
			Values []betValue `json:"values"`
		} `json:"bets"`
	} `json:"bookmakers"`
}

type betValue struct {
	Value string `json:"value"`
	Odd   string `json:"odd"`
}

func (v betValue) decimalOdd() (decimal.Decimal, error) {
	price, err := decimal.NewFromString(v.Odd)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse odd %q: %w", v.Odd, err)
	}
	if price.LessThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, fmt.Errorf("odd %s below 1.0", price)
	}
	return price, nil
}
