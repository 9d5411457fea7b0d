package usecase

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matchsight/matchsight/internal/domain/match"
	"github.com/matchsight/matchsight/internal/domain/odds"
	"github.com/matchsight/matchsight/internal/infrastructure/repository/memory"
)

func intPtr(v int) *int { return &v }

func finishedMatch(id, home, away, leagueID string, homeScore, awayScore int, kickoff time.Time) match.Match {
	return match.Match{
		ID:         id,
		HomeTeamID: home,
		AwayTeamID: away,
		HomeTeam:   home,
		AwayTeam:   away,
		LeagueID:   leagueID,
		KickoffUTC: kickoff,
		Status:     match.StatusFinished,
		HomeScore:  intPtr(homeScore),
		AwayScore:  intPtr(awayScore),
	}
}

func seedMatches(t *testing.T, repo *memory.MatchRepository, items ...match.Match) {
	t.Helper()
	for _, item := range items {
		if _, err := repo.Append(context.Background(), item); err != nil {
			t.Fatalf("seed match %s: %v", item.ID, err)
		}
	}
}

func featureTarget(kickoff time.Time) match.Match {
	return match.Match{
		ID:         "target",
		HomeTeamID: "team-home",
		AwayTeamID: "team-away",
		LeagueID:   "league-1",
		KickoffUTC: kickoff,
		Status:     match.StatusScheduled,
	}
}

func TestCompute_OnlyHistoryBeforeKickoffCounts(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	matches := memory.NewMatchRepository()
	seedMatches(t, matches,
		finishedMatch("h1", "team-home", "other-1", "league-1", 2, 0, kickoff.AddDate(0, 0, -14)),
		finishedMatch("h2", "other-2", "team-home", "league-1", 1, 1, kickoff.AddDate(0, 0, -7)),
		// Played after the cutoff; a backfilled future result must not leak in.
		finishedMatch("h3", "team-home", "other-3", "league-1", 9, 0, kickoff.AddDate(0, 0, 1)),
	)

	svc := NewFeatureService(matches, memory.NewOddsRepository(), nil, FeatureConfig{}, nil)
	vector, err := svc.Compute(context.Background(), featureTarget(kickoff))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if vector.HomeForm.Overall.Matches != 2 {
		t.Fatalf("home form counts %d matches, want 2", vector.HomeForm.Overall.Matches)
	}
	if vector.HomeForm.Home.Matches != 1 || vector.HomeForm.Away.Matches != 1 {
		t.Fatalf("venue splits = %d home / %d away, want 1/1",
			vector.HomeForm.Home.Matches, vector.HomeForm.Away.Matches)
	}
	if !vector.CutoffUTC.Equal(kickoff) {
		t.Fatalf("cutoff = %s, want kickoff", vector.CutoffUTC)
	}
}

func TestCompute_ColdStartFallsBackToNeutral(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	svc := NewFeatureService(memory.NewMatchRepository(), memory.NewOddsRepository(), nil, FeatureConfig{}, nil)

	vector, err := svc.Compute(context.Background(), featureTarget(kickoff))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if vector.HomeForm.Strength != 0.5 || vector.AwayForm.Strength != 0.5 {
		t.Fatalf("cold-start strengths = %f/%f, want neutral 0.5",
			vector.HomeForm.Strength, vector.AwayForm.Strength)
	}
	if vector.Reliability != 0 {
		t.Fatalf("reliability = %f, want 0 with no history", vector.Reliability)
	}
	if vector.HomeMomentum != 0 || vector.AwayMomentum != 0 {
		t.Fatalf("momentum = %f/%f, want 0", vector.HomeMomentum, vector.AwayMomentum)
	}
}

func TestCompute_FormWindowBoundsHistory(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	matches := memory.NewMatchRepository()
	for i := 0; i < 13; i++ {
		seedMatches(t, matches, finishedMatch(
			fmt.Sprintf("h%d", i), "team-home", fmt.Sprintf("opponent-%d", i), "league-1",
			1, 0, kickoff.AddDate(0, 0, -(i+1))))
	}

	svc := NewFeatureService(matches, memory.NewOddsRepository(), nil, FeatureConfig{}, nil)
	vector, err := svc.Compute(context.Background(), featureTarget(kickoff))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if vector.HomeForm.Overall.Matches != 10 {
		t.Fatalf("form window kept %d matches, want 10", vector.HomeForm.Overall.Matches)
	}
}

func TestCompute_ReliabilityIsProductOfCoverage(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	matches := memory.NewMatchRepository()
	for i := 0; i < 10; i++ {
		seedMatches(t, matches, finishedMatch(
			fmt.Sprintf("home-%d", i), "team-home", fmt.Sprintf("x-%d", i), "league-1",
			1, 1, kickoff.AddDate(0, 0, -(i+1))))
	}
	for i := 0; i < 5; i++ {
		seedMatches(t, matches, finishedMatch(
			fmt.Sprintf("away-%d", i), "team-away", fmt.Sprintf("y-%d", i), "league-1",
			0, 0, kickoff.AddDate(0, 0, -(i+1))))
	}

	svc := NewFeatureService(matches, memory.NewOddsRepository(), nil, FeatureConfig{}, nil)
	vector, err := svc.Compute(context.Background(), featureTarget(kickoff))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if math.Abs(vector.Reliability-0.5) > 1e-12 {
		t.Fatalf("reliability = %f, want 0.5 for full home and half away coverage", vector.Reliability)
	}
}

func TestCompute_HeadToHeadWindow(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	matches := memory.NewMatchRepository()
	// Seven meetings, both venue configurations; only the last five count.
	for i := 0; i < 7; i++ {
		home, away := "team-home", "team-away"
		if i%2 == 1 {
			home, away = away, home
		}
		seedMatches(t, matches, finishedMatch(
			fmt.Sprintf("meet-%d", i), home, away, "league-1", 2, 1, kickoff.AddDate(0, 0, -(7-i))))
	}

	svc := NewFeatureService(matches, memory.NewOddsRepository(), nil, FeatureConfig{}, nil)
	vector, err := svc.Compute(context.Background(), featureTarget(kickoff))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if vector.H2H.Meetings != 5 {
		t.Fatalf("h2h meetings = %d, want 5", vector.H2H.Meetings)
	}
	if vector.H2H.HomeWins+vector.H2H.AwayWins+vector.H2H.Draws != 5 {
		t.Fatalf("h2h outcomes do not add up: %+v", vector.H2H)
	}
	if math.Abs(vector.H2H.AvgTotalGoals-3) > 1e-12 {
		t.Fatalf("h2h avg goals = %f, want 3", vector.H2H.AvgTotalGoals)
	}
}

func TestCompute_MomentumRewardsRecentWins(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	matches := memory.NewMatchRepository()
	// Seven losses followed by three wins: the short window beats the long one.
	for i := 0; i < 7; i++ {
		seedMatches(t, matches, finishedMatch(
			fmt.Sprintf("loss-%d", i), "team-home", fmt.Sprintf("o-%d", i), "league-1",
			0, 2, kickoff.AddDate(0, 0, -(20-i))))
	}
	for i := 0; i < 3; i++ {
		seedMatches(t, matches, finishedMatch(
			fmt.Sprintf("win-%d", i), "team-home", fmt.Sprintf("w-%d", i), "league-1",
			3, 0, kickoff.AddDate(0, 0, -(3-i))))
	}

	svc := NewFeatureService(matches, memory.NewOddsRepository(), nil, FeatureConfig{}, nil)
	vector, err := svc.Compute(context.Background(), featureTarget(kickoff))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if vector.HomeMomentum <= 0 {
		t.Fatalf("momentum = %f, want positive after a winning streak", vector.HomeMomentum)
	}
}

func TestCompute_ImpliedProbabilitiesDropMargin(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	oddsRepo := memory.NewOddsRepository()
	observed := kickoff.Add(-6 * time.Hour)
	save := []odds.Observation{
		{MatchID: "target", Market: odds.Market1X2, Selection: odds.SelectionHome, Bookmaker: "b1", Price: decimal.NewFromFloat(2.0), ObservedUTC: observed},
		{MatchID: "target", Market: odds.Market1X2, Selection: odds.SelectionDraw, Bookmaker: "b1", Price: decimal.NewFromFloat(3.5), ObservedUTC: observed},
		{MatchID: "target", Market: odds.Market1X2, Selection: odds.SelectionAway, Bookmaker: "b1", Price: decimal.NewFromFloat(4.0), ObservedUTC: observed},
		// Totals is missing the under price, so it cannot be renormalized.
		{MatchID: "target", Market: odds.MarketTotals, Selection: odds.SelectionOver, Bookmaker: "b1", Price: decimal.NewFromFloat(1.9), ObservedUTC: observed},
	}
	if err := oddsRepo.Save(context.Background(), save); err != nil {
		t.Fatalf("seed odds: %v", err)
	}

	svc := NewFeatureService(memory.NewMatchRepository(), oddsRepo, nil, FeatureConfig{}, nil)
	vector, err := svc.Compute(context.Background(), featureTarget(kickoff))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	implied, ok := vector.Implied[odds.Market1X2]
	if !ok {
		t.Fatal("missing implied probabilities for 1x2")
	}
	sum := 0.0
	for _, p := range implied {
		sum += p
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("implied probabilities sum to %f", sum)
	}
	rawSum := 1/2.0 + 1/3.5 + 1/4.0
	if math.Abs(vector.Margin[odds.Market1X2]-(rawSum-1)) > 1e-12 {
		t.Fatalf("margin = %f, want %f", vector.Margin[odds.Market1X2], rawSum-1)
	}
	if implied[odds.SelectionHome] <= implied[odds.SelectionAway] {
		t.Fatal("shorter price must imply the larger probability")
	}
	if _, ok := vector.Implied[odds.MarketTotals]; ok {
		t.Fatal("incomplete totals market must be skipped")
	}
}

func TestCompute_CachesUnderCutoffKey(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	matches := memory.NewMatchRepository()
	seedMatches(t, matches,
		finishedMatch("h1", "team-home", "other-1", "league-1", 2, 0, kickoff.AddDate(0, 0, -3)))

	svc := NewFeatureService(matches, memory.NewOddsRepository(), nil, FeatureConfig{}, nil)
	first, err := svc.Compute(context.Background(), featureTarget(kickoff))
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}

	// New history arriving later must not alter the already-cached vector.
	seedMatches(t, matches,
		finishedMatch("h2", "team-home", "other-2", "league-1", 0, 5, kickoff.AddDate(0, 0, -1)))

	second, err := svc.Compute(context.Background(), featureTarget(kickoff))
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if second.HomeForm.Strength != first.HomeForm.Strength ||
		second.HomeForm.Overall.Matches != first.HomeForm.Overall.Matches {
		t.Fatal("cached vector changed after new history arrived")
	}
}

func TestCompute_RejectsIncompleteTarget(t *testing.T) {
	t.Parallel()

	svc := NewFeatureService(memory.NewMatchRepository(), memory.NewOddsRepository(), nil, FeatureConfig{}, nil)
	_, err := svc.Compute(context.Background(), match.Match{ID: "broken"})
	if err == nil {
		t.Fatal("expected error for target without teams or kickoff")
	}
}
