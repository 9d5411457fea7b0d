package provider

import (
	"fmt"
	"time"
)

// dstGuard is the window around a zone-offset change inside which local
// kickoff times are refused instead of guessed.
const dstGuard = 90 * time.Minute

// ToUTC converts a provider-local wall-clock time into UTC using the declared
// provider timezone. Times near a DST transition are ambiguous or nonexistent
// and fail rather than guess.
func ToUTC(year int, month time.Month, day, hour, minute int, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("load provider timezone %q: %w", tz, err)
	}

	local := time.Date(year, month, day, hour, minute, 0, 0, loc)
	// A nonexistent wall clock (spring forward) gets silently shifted; detect
	// it by round-tripping.
	if local.Hour() != hour || local.Minute() != minute {
		return time.Time{}, fmt.Errorf("local time %04d-%02d-%02d %02d:%02d does not exist in %s", year, month, day, hour, minute, tz)
	}

	_, offsetBefore := local.Add(-dstGuard).Zone()
	_, offsetAfter := local.Add(dstGuard).Zone()
	if offsetBefore != offsetAfter {
		return time.Time{}, fmt.Errorf("local time %04d-%02d-%02d %02d:%02d in %s is inside a DST transition", year, month, day, hour, minute, tz)
	}

	return local.UTC(), nil
}
