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

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2024, 6, 3), date(2024, 6, 3)},
		{date(2024, 6, 5), date(2024, 6, 3)},
		{date(2024, 6, 7), date(2024, 6, 3)},
		{date(2024, 6, 8), date(2024, 6, 3)},
		{date(2024, 6, 9), date(2024, 6, 3)},
		{date(2024, 6, 10), date(2024, 6, 10)},
		{date(2024, 1, 2), date(2024, 1, 1)},
		{date(2023, 12, 31), date(2023, 12, 25)},
		{time.Date(2024, 6, 6, 23, 30, 0, 0, time.UTC), date(2024, 6, 3)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekStart(tt.in), tt.in.String())
	}
}

func TestWeekOf_FiveWeekdays(t *testing.T) {
	w := WeekOf(date(2024, 2, 28))

	assert.Equal(t, date(2024, 2, 26), w.Start)
	assert.Equal(t, [WeekDays]time.Time{
		date(2024, 2, 26), date(2024, 2, 27), date(2024, 2, 28), date(2024, 2, 29), date(2024, 3, 1),
	}, w.Days)
	for i, d := range w.Days {
		assert.Equal(t, time.Weekday(i+1), d.Weekday())
	}
}

func TestNavigate(t *testing.T) {
	anchor := date(2024, 6, 5)
	today := date(2024, 7, 18)

	prev := Navigate(anchor, Previous, today)
	assert.Equal(t, date(2024, 5, 27), prev.Start)
	assert.Equal(t, date(2024, 5, 29), prev.Anchor)

	next := Navigate(anchor, Next, today)
	assert.Equal(t, date(2024, 6, 10), next.Start)

	reset := Navigate(anchor, Today, today)
	assert.Equal(t, date(2024, 7, 15), reset.Start)
	assert.Equal(t, today, reset.Anchor)

	stay := Navigate(anchor, Stay, today)
	assert.Equal(t, date(2024, 6, 3), stay.Start)

	back := Navigate(Navigate(anchor, Next, today).Anchor, Previous, today)
	assert.Equal(t, WeekOf(anchor), back)
}

func TestIsToday(t *testing.T) {
	today := time.Date(2024, 6, 5, 14, 0, 0, 0, time.UTC)

	assert.True(t, IsToday(date(2024, 6, 5), today))
	assert.False(t, IsToday(date(2024, 6, 4), today))
}

func TestWeekContains(t *testing.T) {
	w := WeekOf(date(2024, 6, 5))

	assert.True(t, w.Contains(date(2024, 6, 3)))
	assert.True(t, w.Contains(date(2024, 6, 7)))
	assert.False(t, w.Contains(date(2024, 6, 8)))
	assert.False(t, w.Contains(date(2024, 5, 31)))
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Stay, "prev": Previous, "NEXT": Next, " today ": Today} {
		got, err := ParseDirection(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseDirection("sideways")
	assert.Error(t, err)
}
