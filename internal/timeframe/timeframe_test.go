package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/timeframe"
)

func TestResolve(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		key           string
		expectedKey   string
		expectedStart time.Time
	}{
		{
			name:          "today anchors at midnight UTC",
			key:           "today",
			expectedKey:   "today",
			expectedStart: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "7d looks back seven days",
			key:           "7d",
			expectedKey:   "7d",
			expectedStart: time.Date(2025, 6, 8, 14, 30, 0, 0, time.UTC),
		},
		{
			name:          "30d looks back thirty days",
			key:           "30d",
			expectedKey:   "30d",
			expectedStart: time.Date(2025, 5, 16, 14, 30, 0, 0, time.UTC),
		},
		{
			name:          "90d looks back ninety days",
			key:           "90d",
			expectedKey:   "90d",
			expectedStart: time.Date(2025, 3, 17, 14, 30, 0, 0, time.UTC),
		},
		{
			name:          "1y looks back a year",
			key:           "1y",
			expectedKey:   "1y",
			expectedStart: time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			name:          "unknown key falls back to default",
			key:           "6h",
			expectedKey:   "7d",
			expectedStart: time.Date(2025, 6, 8, 14, 30, 0, 0, time.UTC),
		},
		{
			name:          "empty key falls back to default",
			key:           "",
			expectedKey:   "7d",
			expectedStart: time.Date(2025, 6, 8, 14, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := timeframe.Resolve(tt.key, "7d", now)
			assert.Equal(t, tt.expectedKey, r.Key)
			assert.Equal(t, tt.expectedStart, r.Start)
			assert.Equal(t, now, r.End)
		})
	}
}

func TestResolveBadDefaultFallsBackTo7d(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	r := timeframe.Resolve("nope", "also-nope", now)
	assert.Equal(t, "7d", r.Key)
	assert.Equal(t, now.AddDate(0, 0, -7), r.Start)
}

func TestPrevious(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	r := timeframe.Resolve("30d", "7d", now)
	prev := timeframe.Previous(r)

	assert.Equal(t, "prev_30d", prev.Key)
	assert.Equal(t, r.Start, prev.End)
	assert.Equal(t, r.Duration(), prev.Duration())
	assert.Equal(t, r.Start.AddDate(0, 0, -30), prev.Start)
}

func TestPreviousOfToday(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	r := timeframe.Resolve("today", "7d", now)
	prev := timeframe.Previous(r)

	// The previous window of a partial day is the same partial slice of
	// yesterday, keeping the comparison like-for-like.
	assert.Equal(t, "prev_today", prev.Key)
	assert.Equal(t, r.Start, prev.End)
	assert.Equal(t, 14*time.Hour+30*time.Minute, prev.Duration())
}

func TestDayCount(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int
	}{
		{
			name:     "same day",
			start:    time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
			expected: 1,
		},
		{
			name:     "seven day lookback touches eight calendar days",
			start:    time.Date(2025, 6, 8, 14, 30, 0, 0, time.UTC),
			end:      time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
			expected: 8,
		},
		{
			name:     "midnight end is exclusive",
			start:    time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			expected: 2,
		},
		{
			name:     "month boundary",
			start:    time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC),
			end:      time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := timeframe.DateRange{Start: tt.start, End: tt.end, Key: "custom"}
			assert.Equal(t, tt.expected, r.DayCount())
		})
	}
}
