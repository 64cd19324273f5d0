package engine

import "time"

// Clock supplies "now" for the run.
//
// Windows that depend on today (the absence lookback, the reactivation
// window) read it once per run. Tests use testutil.FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
