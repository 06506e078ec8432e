// Package pricing converts durations and spot rates into monetary amounts.
package pricing

import (
	"math"
	"time"

	"gopkg.in/guregu/null.v4"
)

// AdvanceTotal prices a fixed reservation window: fractional hours (exact
// millisecond difference, not rounded up) times the hourly rate, rounded to
// 2 decimal currency units.
func AdvanceTotal(hourlyRate float64, start, end time.Time) float64 {
	hours := float64(end.Sub(start).Milliseconds()) / float64(time.Hour.Milliseconds())
	return roundCents(hours * hourlyRate)
}

// PerMinuteRate returns the explicit per-minute rate when set, otherwise the
// hourly rate divided by 60.
func PerMinuteRate(hourlyRate float64, explicit null.Float) float64 {
	if explicit.Valid {
		return explicit.Float64
	}
	return hourlyRate / 60
}

// SessionTotal prices a metered session: fractional elapsed minutes times the
// per-minute rate, rounded to 2 decimals.
func SessionTotal(perMinuteRate float64, start, end time.Time) float64 {
	minutes := float64(end.Sub(start).Milliseconds()) / float64(time.Minute.Milliseconds())
	return roundCents(minutes * perMinuteRate)
}

// EstimateRunning is the advisory running price of a session still in
// progress. Not persisted authoritatively; callers refresh it on a timer.
func EstimateRunning(perMinuteRate float64, start, now time.Time) float64 {
	if now.Before(start) {
		return 0
	}
	return SessionTotal(perMinuteRate, start, now)
}

// SplitElapsed reports the elapsed time between start and end as whole
// minutes plus remaining whole seconds, for display.
func SplitElapsed(start, end time.Time) (minutes, seconds int) {
	total := int(end.Sub(start).Seconds())
	if total < 0 {
		total = 0
	}
	return total / 60, total % 60
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
