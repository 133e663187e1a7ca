package market

import (
	"strings"
	"time"
	_ "time/tzdata"
)

// Timeline 市场开盘/收盘说明
type Timeline struct {
	OpenAt       time.Time `json:"openAt"`
	ClosesAt     time.Time `json:"closesAt"`
	ClosesAtText string    `json:"closesAtText"`
	PayoutText   string    `json:"payoutText"`
}

const payoutText = "Projected payout 1 hour after closing"

var eastern = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// FormatET 以美东时间格式化，如 "Dec 31, 2025, 6:59 PM ET"
func FormatET(t time.Time) string {
	return t.In(eastern).Format("Jan 02, 2006, 3:04 PM") + " ET"
}

func endOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

func endOfYearUTC(year int) time.Time {
	return time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
}

// upcomingSaturdayUTC 当天或之后最近的周六 00:00 UTC
func upcomingSaturdayUTC(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	delta := (int(time.Saturday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, delta)
}

// InferTimeline 根据标题关键字推断收盘时间
func InferTimeline(title string, now time.Time) Timeline {
	t := strings.ToLower(title)
	tl := Timeline{OpenAt: now, PayoutText: payoutText}

	switch {
	case strings.Contains(t, "today") || strings.Contains(t, "end of the day"):
		tl.ClosesAt = endOfDayUTC(now)
		tl.ClosesAtText = FormatET(tl.ClosesAt) + " (end of day)"
	case strings.Contains(t, "before the weekend") || strings.Contains(t, "weekly"):
		tl.ClosesAt = upcomingSaturdayUTC(now)
		tl.ClosesAtText = FormatET(tl.ClosesAt) + " (week close)"
	case strings.Contains(t, "this year") || strings.Contains(t, "by end of year") || strings.Contains(t, "year end"):
		tl.ClosesAt = endOfYearUTC(now.UTC().Year())
		tl.ClosesAtText = FormatET(tl.ClosesAt) + " (year end)"
	default:
		tl.ClosesAt = endOfDayUTC(now)
		tl.ClosesAtText = FormatET(tl.ClosesAt)
	}
	return tl
}
