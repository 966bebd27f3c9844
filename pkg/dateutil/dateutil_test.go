package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestIsSelectable(t *testing.T) {
	today := date(2024, time.January, 10)

	tests := []struct {
		name    string
		date    time.Time
		maxDays int
		want    bool
	}{
		{"today is selectable", today, 5, true},
		{"last day of window", date(2024, time.January, 14), 5, true},
		{"one past the window", date(2024, time.January, 15), 5, false},
		{"yesterday", date(2024, time.January, 9), 5, false},
		{"far future", date(2024, time.March, 1), 5, false},
		{"single-day window", today, 1, true},
		{"tomorrow outside single-day window", date(2024, time.January, 11), 1, false},
		{"zero window rejects everything", today, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSelectable(tt.date, today, tt.maxDays))
		})
	}
}

func TestIsSelectable_IgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, time.January, 10, 23, 59, 0, 0, time.Local)
	lastDay := time.Date(2024, time.January, 14, 0, 1, 0, 0, time.Local)

	assert.True(t, IsSelectable(lastDay, today, 5))
	assert.False(t, IsSelectable(date(2024, time.January, 15), today, 5))
}

func TestClampStep(t *testing.T) {
	today := date(2024, time.January, 10)
	maxDays := 5

	t.Run("backward from today is a no-op", func(t *testing.T) {
		got, ok := ClampStep(today, StepBackward, today, maxDays)
		assert.False(t, ok)
		assert.Equal(t, today, got)
	})

	t.Run("forward from last day is a no-op", func(t *testing.T) {
		last := date(2024, time.January, 14)
		got, ok := ClampStep(last, StepForward, today, maxDays)
		assert.False(t, ok)
		assert.Equal(t, last, got)
	})

	t.Run("forward inside the window", func(t *testing.T) {
		got, ok := ClampStep(today, StepForward, today, maxDays)
		assert.True(t, ok)
		assert.Equal(t, date(2024, time.January, 11), got)
	})

	t.Run("backward inside the window", func(t *testing.T) {
		got, ok := ClampStep(date(2024, time.January, 12), StepBackward, today, maxDays)
		assert.True(t, ok)
		assert.Equal(t, date(2024, time.January, 11), got)
	})
}

func TestFormatAndParseDate(t *testing.T) {
	d := date(2024, time.January, 10)
	assert.Equal(t, "2024-01-10", FormatDate(d))

	parsed, err := ParseDate("2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDate("10/01/2024")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := date(2024, time.January, 10)
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 4, DaysBetween(a, date(2024, time.January, 14)))
	assert.Equal(t, -1, DaysBetween(a, date(2024, time.January, 9)))
}
