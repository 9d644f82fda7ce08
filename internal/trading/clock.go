package trading

import "time"

// Clock supplies the current wall time and the current calendar date of
// the operational trading day. It is injectable so session-date logic
// and the daily scheduler can be tested against a fixed date.
type Clock interface {
	Now() time.Time
	// Today returns the current calendar date at midnight in the
	// trading timezone.
	Today() time.Time
}

type locationClock struct {
	loc *time.Location
}

// NewClock creates a Clock anchored to the given trading timezone.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &locationClock{loc: loc}
}

func (c *locationClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *locationClock) Today() time.Time {
	now := time.Now().In(c.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}
