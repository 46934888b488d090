package ledger

import "time"

// DayBounds returns the first and last instant of the calendar day that
// contains now, in loc.
func DayBounds(now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// AddMonthClamped moves t forward by one calendar month in loc, keeping the
// day of month and wall clock time. When the target month is shorter the
// result is clamped to its last day, so Jan 31 becomes Feb 28 (or 29).
func AddMonthClamped(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	year, month, day := local.Date()

	target := month + 1
	if last := daysIn(year, target, loc); day > last {
		day = last
	}
	return time.Date(year, target, day,
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc)
}

// daysIn returns the number of days in month of year. Month values past
// December roll into the following year, like time.Date.
func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
