package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInstant_RFC3339String(t *testing.T) {
	got, ok := ToInstant("2024-01-01T08:00:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), got)
}

func TestToInstant_DateOnlyString(t *testing.T) {
	got, ok := ToInstant("2024-03-01")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestToInstant_EpochMillis(t *testing.T) {
	ref := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	got, ok := ToInstant(ref.UnixMilli())
	require.True(t, ok)
	assert.True(t, got.Equal(ref))

	// JSON numbers decode as float64.
	got, ok = ToInstant(float64(ref.UnixMilli()))
	require.True(t, ok)
	assert.True(t, got.Equal(ref))
}

func TestToInstant_WrappedTimestamp(t *testing.T) {
	ref := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	got, ok := ToInstant(map[string]any{"seconds": float64(ref.Unix()), "nanoseconds": float64(0)})
	require.True(t, ok)
	assert.True(t, got.Equal(ref))
}

func TestToInstant_NativeTime(t *testing.T) {
	ref := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	got, ok := ToInstant(ref)
	require.True(t, ok)
	assert.True(t, got.Equal(ref))

	got, ok = ToInstant(&ref)
	require.True(t, ok)
	assert.True(t, got.Equal(ref))
}

func TestToInstant_Unparsable(t *testing.T) {
	for _, v := range []any{nil, "", "not a date", (*time.Time)(nil), int64(0), true, []string{"x"}} {
		_, ok := ToInstant(v)
		assert.False(t, ok, "expected failure for %#v", v)
	}
}

func TestMinutesBetween_RoundsToNearest(t *testing.T) {
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 90, MinutesBetween(base, base.Add(90*time.Minute)))
	assert.Equal(t, 2, MinutesBetween(base, base.Add(90*time.Second)))
	assert.Equal(t, 1, MinutesBetween(base, base.Add(80*time.Second)))
	assert.Equal(t, -90, MinutesBetween(base.Add(90*time.Minute), base))
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 6.0, DaysBetween(base, base.AddDate(0, 0, 6)), 1e-9)
	assert.InDelta(t, 0.5, DaysBetween(base, base.Add(12*time.Hour)), 1e-9)
}
