package progression

import (
	"time"

	"github.com/cppla/winterarc/catalog"
)

const dayLayout = "2006-01-02"

// DateOf returns the calendar day of t in loc, as midnight UTC of that day.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a calendar day as YYYY-MM-DD.
func FormatDay(day time.Time) string {
	return day.Format(dayLayout)
}

// ParseDay parses a YYYY-MM-DD calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, s, time.UTC)
}

// DiffDays returns the number of whole calendar days from last to today.
func DiffDays(last, today time.Time) int {
	last = DateOf(last, nil)
	today = DateOf(today, nil)
	return int(today.Sub(last).Hours() / 24)
}

// NextStreak applies the streak rule. last is the activity day before this completion,
// dailyCount the day's counter after it.
func NextStreak(current int, last *time.Time, today time.Time, dailyCount, dailyGoal int) int {
	if last == nil {
		return 1
	}
	diff := DiffDays(*last, today)
	switch {
	case diff == 1 && dailyCount == dailyGoal:
		return current + 1
	case diff > 1:
		return 1
	default:
		return current
	}
}

// Trigger is an achievement threshold awarded by the engine.
type Trigger struct {
	Type      string
	Name      string
	Qualifies func(totalCoins, streak int) bool
}

// Triggers are evaluated independently; every qualifying one fires.
var Triggers = []Trigger{
	{Type: catalog.Coins100, Name: "Century Club", Qualifies: func(c, _ int) bool { return c >= 100 }},
	{Type: catalog.Coins500, Name: "Coin Master", Qualifies: func(c, _ int) bool { return c >= 500 }},
	{Type: catalog.Streak7, Name: "Week Warrior", Qualifies: func(_, s int) bool { return s >= 7 }},
	{Type: catalog.Streak30, Name: "Monthly Master", Qualifies: func(_, s int) bool { return s >= 30 }},
}

// CrossedAchievements lists every trigger satisfied by the given totals.
func CrossedAchievements(totalCoins, streak int) []Trigger {
	var out []Trigger
	for _, t := range Triggers {
		if t.Qualifies(totalCoins, streak) {
			out = append(out, t)
		}
	}
	return out
}
