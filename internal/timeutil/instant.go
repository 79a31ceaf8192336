// Package timeutil normalizes the task store's loosely typed date values.
// Task dates arrive as RFC3339 strings, bare dates, epoch milliseconds, or
// wrapped {seconds, nanoseconds} objects depending on which backend wrote
// them; everything funnels through ToInstant so the rest of the engine only
// ever sees time.Time.
package timeutil

import (
	"math"
	"time"
)

var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToInstant converts a loosely typed date value to a time.Time.
// Returns ok=false for nil, empty, or unparsable input; never panics.
func ToInstant(v any) (time.Time, bool) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return d, true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return ToInstant(*d)
	case string:
		if d == "" {
			return time.Time{}, false
		}
		for _, layout := range stringLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case int64:
		return fromEpochMillis(d)
	case int:
		return fromEpochMillis(int64(d))
	case float64:
		return fromEpochMillis(int64(d))
	case map[string]any:
		// Wrapped timestamp object: {"seconds": s, "nanoseconds": ns}.
		sec, ok := asInt64(d["seconds"])
		if !ok {
			return time.Time{}, false
		}
		ns, _ := asInt64(d["nanoseconds"])
		return time.Unix(sec, ns).UTC(), true
	default:
		return time.Time{}, false
	}
}

func fromEpochMillis(ms int64) (time.Time, bool) {
	if ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// MinutesBetween returns the whole minutes from a to b, rounded to the
// nearest minute from the millisecond difference.
func MinutesBetween(a, b time.Time) int {
	ms := b.Sub(a).Milliseconds()
	return int(math.Round(float64(ms) / 60000.0))
}

// DaysBetween returns the span of a..b in fractional days.
func DaysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24.0
}
