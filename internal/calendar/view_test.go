package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"prodcal/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveView_HourlyGuard(t *testing.T) {
	cfg, downgraded := ResolveView(day(1), day(1).AddDate(0, 0, 45), domain.DetailHour)
	assert.True(t, downgraded, "45 days exceeds the hourly limit")
	assert.Equal(t, 24*60, cfg.SlotMinutes, "downgraded config resolves at day detail")

	cfg, downgraded = ResolveView(day(1), day(1).AddDate(0, 0, 10), domain.DetailHour)
	assert.False(t, downgraded, "10 days keeps hourly detail")
	assert.Equal(t, 60, cfg.SlotMinutes)
}

func TestResolveView_HourDetailViewMapping(t *testing.T) {
	cfg, _ := ResolveView(day(1), day(1).Add(8*time.Hour), domain.DetailHour)
	assert.Equal(t, domain.ViewTimelineDay, cfg.View)

	cfg, _ = ResolveView(day(1), day(6), domain.DetailHour)
	assert.Equal(t, domain.ViewTimelineWeek, cfg.View)

	cfg, _ = ResolveView(day(1), day(21), domain.DetailHour)
	assert.Equal(t, domain.ViewTimelineMonth, cfg.View, "wide ranges force the month timeline")
}

func TestResolveView_DayDetailViewMapping(t *testing.T) {
	cfg, _ := ResolveView(day(1), day(7), domain.DetailDay)
	assert.Equal(t, domain.ViewTimelineWeek, cfg.View)

	cfg, _ = ResolveView(day(1), day(21), domain.DetailDay)
	assert.Equal(t, domain.ViewTimelineMonth, cfg.View)
}

func TestResolveView_WeekDetailIsYearTimeline(t *testing.T) {
	cfg, _ := ResolveView(day(1), day(1).AddDate(0, 6, 0), domain.DetailWeek)
	assert.Equal(t, domain.ViewTimelineYear, cfg.View)
	assert.Equal(t, 7*24*60, cfg.SlotMinutes)
}

func TestClampHourlyRange(t *testing.T) {
	end := ClampHourlyRange(day(1), day(1).AddDate(0, 0, 45))
	assert.Equal(t, day(1).AddDate(0, 0, MaxDaysForHourlyView), end)

	end = ClampHourlyRange(day(1), day(10))
	assert.Equal(t, day(10), end, "ranges within the limit are untouched")
}

func TestIsGenuineUserNavigation(t *testing.T) {
	oldStart, oldEnd := day(1), day(8)

	// Widget echoing the stored window with sub-day jitter.
	assert.False(t, IsGenuineUserNavigation(oldStart, oldEnd, oldStart.Add(2*time.Hour), oldEnd.Add(-3*time.Hour), 1.0))

	// Real prev/next shifts the whole window by its span.
	assert.True(t, IsGenuineUserNavigation(oldStart, oldEnd, day(8), day(15), 1.0))

	// One bound moving far is enough.
	assert.True(t, IsGenuineUserNavigation(oldStart, oldEnd, oldStart, day(20), 1.0))

	// Threshold is configurable.
	assert.True(t, IsGenuineUserNavigation(oldStart, oldEnd, oldStart.Add(13*time.Hour), oldEnd, 0.5))
}
