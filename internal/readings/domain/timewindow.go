package readings

import (
	"errors"
	"time"
)

// ErrInvalidRange indicates an unrecognized range key.
var ErrInvalidRange = errors.New("readings: invalid range")

// ResolveWindow maps a symbolic range key to the lookback boundary anchored
// at now. The key names do not match their windows (key "minute" selects a
// one-hour lookback); the mapping is a fixed compatibility table consumed by
// the dashboard and must not be derived from the key name.
//
//	second  -> now - 1 minute
//	minute  -> now - 1 hour
//	hour    -> now - 1 day
//	daily   -> now - 1 week
//	weekly  -> now - 1 month
//	monthly -> now - 1 year
func ResolveWindow(rangeKey string, now time.Time) (time.Time, error) {
	switch rangeKey {
	case "second":
		return now.Add(-time.Minute), nil
	case "minute":
		return now.Add(-time.Hour), nil
	case "hour":
		return now.AddDate(0, 0, -1), nil
	case "daily":
		return now.AddDate(0, 0, -7), nil
	case "weekly":
		return now.AddDate(0, -1, 0), nil
	case "monthly":
		return now.AddDate(-1, 0, 0), nil
	default:
		return time.Time{}, ErrInvalidRange
	}
}
