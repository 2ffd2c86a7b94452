package billing

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeeklyPeriodAdvancesInSevenDaySteps(t *testing.T) {
	signup := time.Date(2024, time.January, 3, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"inside first window", date(2024, time.January, 5), date(2024, time.January, 3), date(2024, time.January, 9)},
		{"last day of first window", date(2024, time.January, 9), date(2024, time.January, 3), date(2024, time.January, 9)},
		{"first day of second window", date(2024, time.January, 10), date(2024, time.January, 10), date(2024, time.January, 16)},
		{"signup day itself", date(2024, time.January, 3), date(2024, time.January, 3), date(2024, time.January, 9)},
		{"many weeks later", date(2024, time.March, 1), date(2024, time.February, 28), date(2024, time.March, 5)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := CurrentPeriod(tc.now, signup, false)
			if !p.Start.Equal(tc.wantStart) || !p.End.Equal(tc.wantEnd) {
				t.Fatalf("CurrentPeriod(%v) = [%v, %v], want [%v, %v]",
					tc.now, p.Start, p.End, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestWeeklyPeriodLengthIsAlwaysSixDays(t *testing.T) {
	signup := date(2023, time.November, 20)
	now := signup
	for i := 0; i < 100; i++ {
		p := CurrentPeriod(now, signup, false)
		if got := p.End.Sub(p.Start); got != 6*24*time.Hour {
			t.Fatalf("period [%v, %v] spans %v, want 6 days", p.Start, p.End, got)
		}
		if !p.Contains(now) {
			t.Fatalf("period [%v, %v] does not contain now %v", p.Start, p.End, now)
		}
		now = now.AddDate(0, 0, 3)
	}
}

func TestMonthlyPeriodAnchorDayClampsToShortMonths(t *testing.T) {
	activated := time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"mid february shifts back to january anchor", date(2024, time.February, 15), date(2024, time.January, 31), date(2024, time.February, 29)},
		{"on the clamped february anchor", date(2024, time.February, 29), date(2024, time.February, 29), date(2024, time.March, 30)},
		{"mid march", date(2024, time.March, 15), date(2024, time.February, 29), date(2024, time.March, 30)},
		{"on the march anchor", date(2024, time.March, 31), date(2024, time.March, 31), date(2024, time.April, 30)},
		{"april has thirty days", date(2024, time.May, 10), date(2024, time.April, 30), date(2024, time.May, 30)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := CurrentPeriod(tc.now, activated, true)
			if !p.Start.Equal(tc.wantStart) || !p.End.Equal(tc.wantEnd) {
				t.Fatalf("CurrentPeriod(%v) = [%v, %v], want [%v, %v]",
					tc.now, p.Start, p.End, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestMonthlyPeriodMidMonthAnchor(t *testing.T) {
	activated := date(2024, time.March, 15)

	p := CurrentPeriod(date(2024, time.March, 20), activated, true)
	if !p.Start.Equal(date(2024, time.March, 15)) || !p.End.Equal(date(2024, time.April, 14)) {
		t.Fatalf("got [%v, %v], want [2024-03-15, 2024-04-14]", p.Start, p.End)
	}

	// Before the anchor day the window reaches back into the previous month.
	p = CurrentPeriod(date(2024, time.April, 10), activated, true)
	if !p.Start.Equal(date(2024, time.March, 15)) || !p.End.Equal(date(2024, time.April, 14)) {
		t.Fatalf("got [%v, %v], want [2024-03-15, 2024-04-14]", p.Start, p.End)
	}

	p = CurrentPeriod(date(2024, time.April, 15), activated, true)
	if !p.Start.Equal(date(2024, time.April, 15)) || !p.End.Equal(date(2024, time.May, 14)) {
		t.Fatalf("got [%v, %v], want [2024-04-15, 2024-05-14]", p.Start, p.End)
	}
}

func TestCurrentPeriodIsDeterministicAndContainsNow(t *testing.T) {
	anchors := []time.Time{
		date(2023, time.December, 31),
		date(2024, time.January, 1),
		date(2024, time.February, 29),
		time.Date(2024, time.June, 15, 23, 59, 59, 0, time.UTC),
	}
	nows := []time.Time{
		date(2024, time.July, 1),
		date(2024, time.December, 31),
		time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC),
		date(2025, time.March, 1),
	}

	for _, anchor := range anchors {
		for _, now := range nows {
			for _, premium := range []bool{false, true} {
				if now.Before(anchor) {
					continue
				}
				a := CurrentPeriod(now, anchor, premium)
				b := CurrentPeriod(now, anchor, premium)
				if !a.Start.Equal(b.Start) || !a.End.Equal(b.End) {
					t.Fatalf("CurrentPeriod not deterministic for now=%v anchor=%v premium=%v", now, anchor, premium)
				}
				if !a.Contains(now) {
					t.Fatalf("period [%v, %v] excludes now=%v (anchor=%v premium=%v)",
						a.Start, a.End, now, anchor, premium)
				}
			}
		}
	}
}

func TestTimeOfDayDoesNotShiftBoundaries(t *testing.T) {
	anchor := time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)
	morning := CurrentPeriod(time.Date(2024, time.February, 15, 0, 0, 1, 0, time.UTC), anchor, true)
	evening := CurrentPeriod(time.Date(2024, time.February, 15, 23, 59, 59, 0, time.UTC), anchor, true)
	if !morning.Start.Equal(evening.Start) || !morning.End.Equal(evening.End) {
		t.Fatalf("time of day shifted the period: [%v, %v] vs [%v, %v]",
			morning.Start, morning.End, evening.Start, evening.End)
	}
}
