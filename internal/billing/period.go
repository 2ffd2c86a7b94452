package billing

import "time"

// Period is the date window usage is measured against. Start and End are
// whole UTC days, both inclusive.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the given instant falls inside the period.
func (p Period) Contains(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(p.Start) && !day.After(p.End)
}

// CurrentPeriod computes the billing period containing now for a user whose
// periods are anchored to the given date. Free users get a rolling 7-day
// window advanced in fixed 7-day steps from the anchor; premium users get a
// calendar-month window anchored to the anchor's day of month, clamped to
// the length of the target month. The result depends only on the arguments.
func CurrentPeriod(now, anchor time.Time, premium bool) Period {
	if premium {
		return monthlyPeriod(now, anchor)
	}
	return weeklyPeriod(now, anchor)
}

func weeklyPeriod(now, anchor time.Time) Period {
	start := truncateDay(anchor)
	today := truncateDay(now)
	if today.After(start) {
		elapsed := int(today.Sub(start).Hours()) / 24
		start = start.AddDate(0, 0, (elapsed/7)*7)
	}
	return Period{Start: start, End: start.AddDate(0, 0, 6)}
}

func monthlyPeriod(now, anchor time.Time) Period {
	today := truncateDay(now)
	anchorDay := anchor.Day()

	year, month, _ := today.Date()
	start := clampedDate(year, month, anchorDay)
	if start.After(today) {
		year, month = previousMonth(year, month)
		start = clampedDate(year, month, anchorDay)
	}

	nextYear, nextMonth := followingMonth(start.Year(), start.Month())
	end := clampedDate(nextYear, nextMonth, anchorDay)
	if anchorDay <= daysInMonth(nextYear, nextMonth) {
		// The anchor day exists in the next month, so the next period
		// starts exactly there and this one ends the day before.
		end = end.AddDate(0, 0, -1)
	}
	return Period{Start: start, End: end}
}

// clampedDate builds a UTC date, pulling the day back to the last valid day
// of the month instead of rolling over into the next one.
func clampedDate(year int, month time.Month, day int) time.Time {
	if max := daysInMonth(year, month); day > max {
		day = max
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

func followingMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

func truncateDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
