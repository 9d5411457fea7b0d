package match

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	StatusScheduled = "scheduled"
	StatusInPlay    = "in_play"
	StatusFinished  = "finished"
	StatusPostponed = "postponed"
	StatusCancelled = "cancelled"
)

// FingerprintBucket tolerates small cross-provider clock disagreements:
// kickoffs are rounded to the nearest bucket before keying.
const FingerprintBucket = 15 * time.Minute

// Match is the canonical record produced by the reconciler. Once a version is
// stored it is immutable; corrections append a new version.
type Match struct {
	ID         string
	Version    int
	HomeTeamID string
	AwayTeamID string
	HomeTeam   string
	AwayTeam   string
	LeagueID   string
	KickoffUTC time.Time
	Status     string
	HomeScore  *int
	AwayScore  *int
	Venue      string
	Referee    string
	Disputed   bool
	// SourceProviders lists every provider that contributed a record to this
	// match, in priority order.
	SourceProviders []string
	// Provenance records which provider supplied each field.
	Provenance map[string]string
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	switch status {
	case "":
		return StatusScheduled
	case "ns", "tbd", "timed", StatusScheduled:
		return StatusScheduled
	case "live", "ht", "1h", "2h", "et", "in_play", "inplay":
		return StatusInPlay
	case "ft", "aet", "pen", StatusFinished, "finished_after_extra", "full_time":
		return StatusFinished
	case "pst", StatusPostponed:
		return StatusPostponed
	case "canc", "abd", "awarded", StatusCancelled:
		return StatusCancelled
	default:
		return status
	}
}

func (m Match) IsFinished() bool {
	return m.Status == StatusFinished
}

// Validate enforces the score/status invariant: scores are present iff the
// match is finished.
func (m Match) Validate() error {
	switch {
	case m.HomeTeamID == "" || m.AwayTeamID == "":
		return fmt.Errorf("match %s: missing team ids", m.ID)
	case m.HomeTeamID == m.AwayTeamID:
		return fmt.Errorf("match %s: home and away team are identical", m.ID)
	case m.KickoffUTC.IsZero():
		return fmt.Errorf("match %s: missing kickoff", m.ID)
	case m.Status == StatusFinished && (m.HomeScore == nil || m.AwayScore == nil):
		return fmt.Errorf("match %s: finished without scores", m.ID)
	case m.Status != StatusFinished && (m.HomeScore != nil || m.AwayScore != nil):
		return fmt.Errorf("match %s: scores present on %s match", m.ID, m.Status)
	}
	return nil
}

// Fingerprint derives the stable match identity from intrinsic attributes so
// independently sourced records can be recognized as the same entity.
func Fingerprint(homeTeamID, awayTeamID, leagueID string, kickoffUTC time.Time) string {
	bucketed := kickoffUTC.UTC().Round(FingerprintBucket)
	key := homeTeamID + "|" + awayTeamID + "|" + bucketed.Format(time.RFC3339) + "|" + leagueID
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:10])
}

// WithProvenance returns a copy with one field attribution set.
func (m Match) WithProvenance(field, providerID string) Match {
	out := m
	out.Provenance = make(map[string]string, len(m.Provenance)+1)
	for k, v := range m.Provenance {
		out.Provenance[k] = v
	}
	out.Provenance[field] = providerID
	return out
}
