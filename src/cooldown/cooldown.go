// Package cooldown mirrors the contract's per-sender cooldown on the client.
package cooldown

import (
	"math"
	"time"
)

// Window is the cooldown enforced by the contract between two submissions.
const Window = 15 * time.Minute

// displayThreshold is the exclusive upper bound at which the wait notice is shown.
// It is one minute past Window and kept that way on purpose.
const displayThreshold = 16

// RemainingMinutes returns the whole minutes left in the window that started at last.
// The result goes negative once the window has expired.
func RemainingMinutes(last, now time.Time) int {
	elapsed := float64(now.Sub(last)) / float64(time.Minute)
	return int(math.Floor(Window.Minutes() - elapsed))
}

// Cooling reports whether a remaining value should block submitting.
// A nil value means there was never a submission.
func Cooling(remaining *int) bool {
	if remaining == nil {
		return false
	}
	return *remaining > 0 && *remaining < displayThreshold
}
