package match

import (
	"testing"
	"time"
)

func TestFingerprint_StableAcrossClockSkew(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	base := Fingerprint("team-a", "team-b", "league-1", kickoff)

	// Small cross-provider skew lands in the same bucket.
	if got := Fingerprint("team-a", "team-b", "league-1", kickoff.Add(6*time.Minute)); got != base {
		t.Fatalf("6 minute skew changed the fingerprint: %s vs %s", got, base)
	}
	if got := Fingerprint("team-a", "team-b", "league-1", kickoff.Add(-7*time.Minute)); got != base {
		t.Fatalf("-7 minute skew changed the fingerprint: %s vs %s", got, base)
	}

	// A genuinely different kickoff does not.
	if got := Fingerprint("team-a", "team-b", "league-1", kickoff.Add(time.Hour)); got == base {
		t.Fatal("one hour later must be a different match")
	}
	// Venue swap is a different fixture.
	if got := Fingerprint("team-b", "team-a", "league-1", kickoff); got == base {
		t.Fatal("swapped home and away must be a different match")
	}
	if len(base) != 20 {
		t.Fatalf("fingerprint length = %d, want 20 hex chars", len(base))
	}
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"NS":        StatusScheduled,
		"timed":     StatusScheduled,
		"":          StatusScheduled,
		"FT":        StatusFinished,
		"AET":       StatusFinished,
		"full_time": StatusFinished,
		"HT":        StatusInPlay,
		"LIVE":      StatusInPlay,
		"PST":       StatusPostponed,
		"CANC":      StatusCancelled,
		"awarded":   StatusCancelled,
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Fatalf("NormalizeStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestValidate_ScoreStatusInvariant(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	score := 2
	base := Match{
		ID:         "m-1",
		HomeTeamID: "team-a",
		AwayTeamID: "team-b",
		KickoffUTC: kickoff,
		Status:     StatusScheduled,
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("valid scheduled match rejected: %v", err)
	}

	finishedNoScores := base
	finishedNoScores.Status = StatusFinished
	if err := finishedNoScores.Validate(); err == nil {
		t.Fatal("finished without scores must fail")
	}

	scheduledWithScores := base
	scheduledWithScores.HomeScore = &score
	scheduledWithScores.AwayScore = &score
	if err := scheduledWithScores.Validate(); err == nil {
		t.Fatal("scheduled with scores must fail")
	}

	selfPaired := base
	selfPaired.AwayTeamID = selfPaired.HomeTeamID
	if err := selfPaired.Validate(); err == nil {
		t.Fatal("identical team pair must fail")
	}
}

func TestWithProvenance_CopiesMap(t *testing.T) {
	t.Parallel()

	base := Match{ID: "m-1", Provenance: map[string]string{"kickoff": "alpha"}}
	updated := base.WithProvenance("score", "beta")

	if updated.Provenance["score"] != "beta" || updated.Provenance["kickoff"] != "alpha" {
		t.Fatalf("provenance = %v", updated.Provenance)
	}
	if _, ok := base.Provenance["score"]; ok {
		t.Fatal("original provenance map must stay untouched")
	}
}
