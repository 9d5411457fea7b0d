package feature

import "time"

// SchemaVersion stamps cached feature vectors. Bump it whenever any formula
// below changes so stale cache entries stop matching.
const SchemaVersion = 3

// Split aggregates one venue-restricted slice of a team's window.
type Split struct {
	Matches      int
	Wins         int
	Draws        int
	Losses       int
	GoalsFor     int
	GoalsAgainst int
}

func (s Split) WinRate() float64  { return rate(s.Wins, s.Matches) }
func (s Split) DrawRate() float64 { return rate(s.Draws, s.Matches) }
func (s Split) LossRate() float64 { return rate(s.Losses, s.Matches) }

func (s Split) GoalsForAvg() float64 {
	return avg(s.GoalsFor, s.Matches)
}

func (s Split) GoalsAgainstAvg() float64 {
	return avg(s.GoalsAgainst, s.Matches)
}

// TeamForm is the rolling snapshot of one team strictly before AsOfUTC.
// Only finished matches with kickoff before the cutoff contribute.
type TeamForm struct {
	TeamID   string
	AsOfUTC  time.Time
	Overall  Split
	Home     Split
	Away     Split
	Strength float64 // [0.1, 0.9], see Engine.strength
}

// HeadToHead aggregates the last meetings of a pair in either venue
// configuration strictly before AsOfUTC.
type HeadToHead struct {
	HomeTeamID    string
	AwayTeamID    string
	AsOfUTC       time.Time
	Meetings      int
	HomeWins      int
	Draws         int
	AwayWins      int
	AvgTotalGoals float64
}

// LeagueBaseline is the rolling league-level prior at a cutoff.
type LeagueBaseline struct {
	LeagueID    string
	AsOfUTC     time.Time
	Matches     int
	AvgGoals    float64
	HomeWinRate float64
	DrawRate    float64
}

// Vector is everything the predictor consumes for one match. It is a pure
// function of (match, finished history before kickoff, configuration) and is
// safe to cache under its key forever.
type Vector struct {
	MatchID       string
	SchemaVersion int
	CutoffUTC     time.Time

	HomeForm TeamForm
	AwayForm TeamForm
	H2H      HeadToHead
	Baseline LeagueBaseline

	HomeMomentum float64 // [-1, 1]
	AwayMomentum float64

	// Implied holds margin-free odds-implied probabilities per market per
	// selection; Margin keeps the removed bookmaker overround per market.
	Implied map[string]map[string]float64
	Margin  map[string]float64

	// Reliability summarizes data sufficiency in [0, 1].
	Reliability float64
}

func rate(part, total int) float64 {
	if total < 1 {
		total = 1
	}
	return float64(part) / float64(total)
}

func avg(sum, total int) float64 {
	if total < 1 {
		total = 1
	}
	return float64(sum) / float64(total)
}
