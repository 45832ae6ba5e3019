package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCountBusinessDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{name: "single weekday", start: date(2024, 1, 8), end: date(2024, 1, 8), want: 1},
		{name: "single saturday", start: date(2024, 1, 6), end: date(2024, 1, 6), want: 0},
		{name: "single sunday", start: date(2024, 1, 7), end: date(2024, 1, 7), want: 0},
		{name: "full week", start: date(2024, 1, 8), end: date(2024, 1, 14), want: 5},
		{name: "weekend to weekend", start: date(2024, 1, 6), end: date(2024, 1, 14), want: 5},
		{name: "two weeks", start: date(2024, 1, 8), end: date(2024, 1, 19), want: 10},
		{name: "inverted range", start: date(2024, 1, 12), end: date(2024, 1, 8), want: 0},
		{name: "across leap day", start: date(2024, 2, 26), end: date(2024, 3, 1), want: 5},
		{name: "across year end", start: date(2024, 12, 30), end: date(2025, 1, 3), want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountBusinessDays(tt.start, tt.end))
		})
	}
}

func TestCountBusinessDaysIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 8, 17, 30, 0, 0, time.UTC)
	end := time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, CountBusinessDays(start, end))
}

func TestCountBusinessDaysDoesNotMutateInputs(t *testing.T) {
	start := time.Date(2024, 1, 8, 9, 15, 0, 0, time.UTC)
	end := time.Date(2024, 1, 19, 9, 15, 0, 0, time.UTC)
	startCopy, endCopy := start, end

	CountBusinessDays(start, end)

	assert.True(t, start.Equal(startCopy))
	assert.True(t, end.Equal(endCopy))
}

func TestCountBusinessDaysSingleDayProperty(t *testing.T) {
	day := date(2023, 12, 1)
	for i := 0; i < 120; i++ {
		want := 0
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			want = 1
		}
		require.Equal(t, want, CountBusinessDays(day, day), "day %s", day.Format("2006-01-02"))
		day = day.AddDate(0, 0, 1)
	}
}

func TestCountBusinessDaysIncrementalProperty(t *testing.T) {
	start := date(2024, 2, 20)
	for offset := 1; offset < 60; offset++ {
		end := start.AddDate(0, 0, offset)
		extra := 0
		if IsBusinessDay(end) {
			extra = 1
		}
		require.Equal(t,
			CountBusinessDays(start, end.AddDate(0, 0, -1))+extra,
			CountBusinessDays(start, end),
			"end %s", end.Format("2006-01-02"),
		)
	}
}

func TestAdvanceToEndDateFromSaturday(t *testing.T) {
	end, err := AdvanceToEndDate(date(2024, 1, 6), 5)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 12), end)
	assert.Equal(t, time.Friday, end.Weekday())
}

func TestAdvanceToEndDateSkipsWeekends(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		days  int
		want  time.Time
	}{
		{name: "one day on weekday", start: date(2024, 1, 10), days: 1, want: date(2024, 1, 10)},
		{name: "one day on sunday", start: date(2024, 1, 7), days: 1, want: date(2024, 1, 8)},
		{name: "crosses weekend", start: date(2024, 1, 11), days: 3, want: date(2024, 1, 15)},
		{name: "six days from saturday", start: date(2024, 1, 6), days: 6, want: date(2024, 1, 15)},
		{name: "fifteen days", start: date(2024, 7, 1), days: 15, want: date(2024, 7, 19)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdvanceToEndDate(tt.start, tt.days)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdvanceToEndDateRejectsNonPositiveDays(t *testing.T) {
	for _, days := range []int{0, -1, -30} {
		got, err := AdvanceToEndDate(date(2024, 1, 8), days)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.True(t, got.IsZero())
	}
}

func TestAdvanceToEndDateIndexProperty(t *testing.T) {
	start := date(2024, 3, 1)
	for offset := 0; offset < 14; offset++ {
		from := start.AddDate(0, 0, offset)
		for n := 1; n <= 25; n++ {
			end, err := AdvanceToEndDate(from, n)
			require.NoError(t, err)
			require.True(t, IsBusinessDay(end))
			require.Equal(t, n, CountBusinessDays(NextBusinessDay(from), end))
		}
	}
}

func TestAdvanceToEndDateIsIdempotent(t *testing.T) {
	first, err := AdvanceToEndDate(date(2024, 5, 17), 9)
	require.NoError(t, err)
	second, err := AdvanceToEndDate(date(2024, 5, 17), 9)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNextBusinessDay(t *testing.T) {
	assert.Equal(t, date(2024, 1, 8), NextBusinessDay(date(2024, 1, 6)))
	assert.Equal(t, date(2024, 1, 8), NextBusinessDay(date(2024, 1, 7)))
	assert.Equal(t, date(2024, 1, 9), NextBusinessDay(time.Date(2024, 1, 9, 14, 0, 0, 0, time.UTC)))
}
