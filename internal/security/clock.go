package security

import "time"

// Clock returns the current time. Services take one so expiry can be tested.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now()
}

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
