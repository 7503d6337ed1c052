// Package period computes the UTC windows XP is aggregated over.
package period

import (
	"strings"
	"time"
)

type Period string

const (
	Today   Period = "today"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	AllTime Period = "all"
)

// All lists every period a leaderboard can be requested for.
var All = []Period{Today, Weekly, Monthly, AllTime}

// Parse accepts the canonical names plus a few common spellings.
func Parse(s string) (Period, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "day", "daily":
		return Today, true
	case "weekly", "week":
		return Weekly, true
	case "monthly", "month":
		return Monthly, true
	case "all", "alltime", "all-time", "all_time", "lifetime":
		return AllTime, true
	}
	return "", false
}

// DayStart returns 00:00:00 UTC of t's day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns Monday 00:00:00 UTC of t's week.
func WeekStart(t time.Time) time.Time {
	day := DayStart(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns the 1st 00:00:00 UTC of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Start returns the beginning of the window containing t. AllTime has no
// start and returns the zero time.
func (p Period) Start(t time.Time) time.Time {
	switch p {
	case Today:
		return DayStart(t)
	case Weekly:
		return WeekStart(t)
	case Monthly:
		return MonthStart(t)
	}
	return time.Time{}
}

// Key names the window containing t, e.g. "weekly:2026-10-12".
func (p Period) Key(t time.Time) string {
	switch p {
	case Today, Weekly:
		return string(p) + ":" + p.Start(t).Format("2006-01-02")
	case Monthly:
		return string(p) + ":" + p.Start(t).Format("2006-01")
	}
	return string(AllTime)
}

// TTL is how long a cached window stays useful after it was last written.
func (p Period) TTL() time.Duration {
	switch p {
	case Today:
		return 48 * time.Hour
	case Weekly:
		return 8 * 24 * time.Hour
	case Monthly:
		return 32 * 24 * time.Hour
	}
	return 0
}
