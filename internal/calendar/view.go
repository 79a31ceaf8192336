package calendar

import (
	"math"
	"time"

	"prodcal/internal/domain"
	"prodcal/internal/timeutil"
)

const (
	// MaxDaysForHourlyView caps how wide a window hourly slots may cover;
	// wider requests are downgraded to day detail.
	MaxDaysForHourlyView = 30

	// DefaultNavigationThresholdDays separates genuine prev/next
	// navigation from the widget re-reporting its own visible range.
	DefaultNavigationThresholdDays = 1.0
)

// ResolveView picks the concrete timeline view and slot granularity for a
// range and detail level. The returned bool is true when hour detail was
// rejected for exceeding MaxDaysForHourlyView and the config was resolved
// at day detail instead; the caller owes the user a notice.
func ResolveView(start, end time.Time, detail domain.DetailLevel) (domain.ViewConfig, bool) {
	days := timeutil.DaysBetween(start, end)

	if detail == domain.DetailHour && days > MaxDaysForHourlyView {
		cfg, _ := ResolveView(start, end, domain.DetailDay)
		return cfg, true
	}

	cfg := domain.ViewConfig{RangeStart: start, RangeEnd: end}
	switch detail {
	case domain.DetailHour:
		cfg.SlotMinutes = 60
		switch {
		case days <= 1:
			cfg.View = domain.ViewTimelineDay
		case days <= 7:
			cfg.View = domain.ViewTimelineWeek
		default:
			cfg.View = domain.ViewTimelineMonth
		}
	case domain.DetailWeek:
		cfg.SlotMinutes = 7 * 24 * 60
		cfg.View = domain.ViewTimelineYear
	default: // day
		cfg.SlotMinutes = 24 * 60
		if days <= 7 {
			cfg.View = domain.ViewTimelineWeek
		} else {
			cfg.View = domain.ViewTimelineMonth
		}
	}
	return cfg, false
}

// ClampHourlyRange trims end so the window fits within the hourly-view
// limit. Used when the caller insists on hour detail for a too-wide range.
func ClampHourlyRange(start, end time.Time) time.Time {
	limit := start.AddDate(0, 0, MaxDaysForHourlyView)
	if end.After(limit) {
		return limit
	}
	return end
}

// IsGenuineUserNavigation reports whether a widget-reported range change
// moved either bound by more than thresholdDays. Smaller shifts are the
// widget re-rendering around the stored window and are ignored while a
// custom range is active.
func IsGenuineUserNavigation(oldStart, oldEnd, newStart, newEnd time.Time, thresholdDays float64) bool {
	startShift := math.Abs(timeutil.DaysBetween(oldStart, newStart))
	endShift := math.Abs(timeutil.DaysBetween(oldEnd, newEnd))
	return startShift > thresholdDays || endShift > thresholdDays
}
