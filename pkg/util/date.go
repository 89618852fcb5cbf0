package util

import (
	"strconv"
	"time"
)

// Unix values above this are treated as milliseconds.
const unixMillisThreshold = 1e12

// ParseTime accepts RFC3339 (with or without fractional seconds) and unix
// seconds or milliseconds. The result is in UTC.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		if ts >= unixMillisThreshold {
			return time.UnixMilli(ts).UTC(), true
		}
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}
