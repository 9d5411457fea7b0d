package memory

import (
	"context"
	"testing"
	"time"

	"github.com/matchsight/matchsight/internal/domain/match"
)

func intPtr(v int) *int { return &v }

func scheduled(id string, kickoff time.Time) match.Match {
	return match.Match{
		ID:         id,
		HomeTeamID: "team-a",
		AwayTeamID: "team-b",
		LeagueID:   "league-1",
		KickoffUTC: kickoff,
		Status:     match.StatusScheduled,
	}
}

func finished(id string, kickoff time.Time, home, away int) match.Match {
	m := scheduled(id, kickoff)
	m.Status = match.StatusFinished
	m.HomeScore = intPtr(home)
	m.AwayScore = intPtr(away)
	return m
}

func TestMatchRepository_AppendAssignsVersions(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)

	first, err := repo.Append(context.Background(), scheduled("m-1", kickoff))
	if err != nil {
		t.Fatalf("append v1: %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("version = %d, want 1", first.Version)
	}

	second, err := repo.Append(context.Background(), finished("m-1", kickoff, 2, 1))
	if err != nil {
		t.Fatalf("append v2: %v", err)
	}
	if second.Version != 2 {
		t.Fatalf("version = %d, want 2", second.Version)
	}

	latest, ok, err := repo.Latest(context.Background(), "m-1")
	if err != nil || !ok {
		t.Fatalf("latest: ok=%t err=%v", ok, err)
	}
	if latest.Version != 2 || !latest.IsFinished() {
		t.Fatalf("latest = %+v, want finished v2", latest)
	}

	versions, err := repo.ListVersions(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 2 || versions[0].Version != 1 || versions[1].Version != 2 {
		t.Fatalf("versions = %+v, want both, oldest first", versions)
	}
}

func TestMatchRepository_AppendRejectsTeamPairChange(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	if _, err := repo.Append(context.Background(), scheduled("m-1", kickoff)); err != nil {
		t.Fatalf("append v1: %v", err)
	}

	swapped := scheduled("m-1", kickoff)
	swapped.HomeTeamID, swapped.AwayTeamID = "team-b", "team-a"
	if _, err := repo.Append(context.Background(), swapped); err == nil {
		t.Fatal("a correction must not change the team pair")
	}
}

func TestMatchRepository_AppendValidates(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)

	finishedNoScores := scheduled("m-1", kickoff)
	finishedNoScores.Status = match.StatusFinished
	if _, err := repo.Append(context.Background(), finishedNoScores); err == nil {
		t.Fatal("finished matches require scores")
	}

	scheduledWithScores := scheduled("m-2", kickoff)
	scheduledWithScores.HomeScore = intPtr(1)
	scheduledWithScores.AwayScore = intPtr(0)
	if _, err := repo.Append(context.Background(), scheduledWithScores); err == nil {
		t.Fatal("scheduled matches must not carry scores")
	}
}

func TestMatchRepository_ListFinishedBeforeIsPointInTime(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	cutoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)

	early := finished("early", cutoff.AddDate(0, 0, -3), 1, 0)
	late := finished("late", cutoff.AddDate(0, 0, -1), 0, 0)
	after := finished("after", cutoff.Add(time.Hour), 2, 2)
	pending := scheduled("pending", cutoff.AddDate(0, 0, -2))
	disputed := finished("disputed", cutoff.AddDate(0, 0, -2), 3, 0)
	disputed.Disputed = true

	for _, m := range []match.Match{late, early, after, pending, disputed} {
		if _, err := repo.Append(context.Background(), m); err != nil {
			t.Fatalf("append %s: %v", m.ID, err)
		}
	}

	out, err := repo.ListFinishedBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("list finished: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d matches, want 2 (no future, pending, or disputed)", len(out))
	}
	if out[0].ID != "early" || out[1].ID != "late" {
		t.Fatalf("order = %s, %s, want ascending kickoff", out[0].ID, out[1].ID)
	}
}

func TestMatchRepository_DisputeResolutionRestoresHistory(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	cutoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)

	disputed := finished("m-1", cutoff.AddDate(0, 0, -2), 3, 0)
	disputed.Disputed = true
	if _, err := repo.Append(context.Background(), disputed); err != nil {
		t.Fatalf("append disputed: %v", err)
	}

	out, err := repo.ListFinishedBefore(context.Background(), cutoff)
	if err != nil || len(out) != 0 {
		t.Fatalf("disputed match leaked into history: %v %v", out, err)
	}

	resolved := finished("m-1", cutoff.AddDate(0, 0, -2), 3, 0)
	if _, err := repo.Append(context.Background(), resolved); err != nil {
		t.Fatalf("append resolution: %v", err)
	}

	out, err = repo.ListFinishedBefore(context.Background(), cutoff)
	if err != nil || len(out) != 1 || out[0].Version != 2 {
		t.Fatalf("resolved version missing from history: %v %v", out, err)
	}
}
