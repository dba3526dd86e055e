package room

import "time"

// Clock supplies wall-clock reads. Injected so expiry behavior is testable
// without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
