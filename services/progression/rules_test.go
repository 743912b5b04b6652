package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestDiffDays(t *testing.T) {
	assert.Equal(t, 0, DiffDays(day(t, "2024-03-10"), day(t, "2024-03-10")))
	assert.Equal(t, 1, DiffDays(day(t, "2024-03-09"), day(t, "2024-03-10")))
	assert.Equal(t, 2, DiffDays(day(t, "2024-02-28"), day(t, "2024-03-01")))
	assert.Equal(t, 1, DiffDays(day(t, "2023-12-31"), day(t, "2024-01-01")))
	// times within a day do not matter
	late := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	early := time.Date(2024, 3, 10, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DiffDays(late, early))
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	ts := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-10", FormatDay(DateOf(ts, loc)))
	assert.Equal(t, "2024-03-09", FormatDay(DateOf(ts, nil)))
}

func TestNextStreak(t *testing.T) {
	today := day(t, "2024-03-10")
	yesterday := day(t, "2024-03-09")
	longAgo := day(t, "2024-03-01")

	cases := []struct {
		name    string
		current int
		last    *time.Time
		count   int
		want    int
	}{
		{"first activity", 0, nil, 1, 1},
		{"first activity ignores count", 5, nil, 2, 1},
		{"yesterday and goal met", 3, &yesterday, 2, 4},
		{"yesterday and goal not met", 3, &yesterday, 1, 3},
		{"same day", 3, &today, 2, 3},
		{"gap resets", 9, &longAgo, 2, 1},
		{"gap resets before goal", 9, &longAgo, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextStreak(tc.current, tc.last, today, tc.count, 2))
		})
	}
}

func TestCrossedAchievements(t *testing.T) {
	types := func(ts []Trigger) []string {
		var out []string
		for _, tr := range ts {
			out = append(out, tr.Type)
		}
		return out
	}

	assert.Empty(t, CrossedAchievements(99, 6))
	assert.Equal(t, []string{"coins_100"}, types(CrossedAchievements(100, 0)))
	assert.Equal(t, []string{"coins_100", "coins_500", "streak_7"}, types(CrossedAchievements(600, 7)))
	assert.Equal(t, []string{"coins_100", "coins_500", "streak_7", "streak_30"}, types(CrossedAchievements(5000, 90)))
}
