package rules

import "time"

const day = 24 * time.Hour

// IsOldEnough reports whether an entry last modified at modTime is at least
// minAgeDays old at now. A zero modTime means the time is unknown and the
// entry is never old enough.
func IsOldEnough(modTime time.Time, minAgeDays int, now time.Time) bool {
	if modTime.IsZero() {
		return false
	}
	if minAgeDays <= 0 {
		return true
	}
	// Calendar arithmetic; a Duration overflows past ~292 years.
	return !modTime.AddDate(0, 0, minAgeDays).After(now)
}
