package footballdata

import (
	"strconv"
	"strings"
)

type matchesEnvelope struct {
	Matches []matchItem `json:"matches"`
}

type matchItem struct {
	ID      int64  `json:"id"`
	UTCDate string `json:"utcDate"`
	Status  string `json:"status"`
	Venue   string `json:"venue"`
	Area    struct {
		Name string `json:"name"`
	} `json:"area"`
	Competition struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"competition"`
	Season   seasonItem `json:"season"`
	HomeTeam struct {
		Name string `json:"name"`
	} `json:"homeTeam"`
	AwayTeam struct {
		Name string `json:"name"`
	} `json:"awayTeam"`
	Score struct {
		FullTime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"fullTime"`
	} `json:"score"`
	Referees []refereeItem `json:"referees"`
}

type seasonItem struct {
	StartDate string `json:"startDate"`
}

func (s seasonItem) StartYear() int {
	parts := strings.SplitN(s.StartDate, "-", 2)
	if len(parts) == 0 {
		return 0
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	return year
}

type refereeItem struct {
	Name string `json:"name"`
}
