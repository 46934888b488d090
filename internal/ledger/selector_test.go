package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelectDueToday(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	startOfDay := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
	yesterday := startOfDay.Add(-time.Hour)

	def := func(id string, due time.Time) Definition {
		return Definition{
			ID:               id,
			IsActive:         true,
			PaymentStartDate: due,
			PaymentEndDate:   due.AddDate(1, 0, 0),
		}
	}

	inactive := def("inactive", now)
	inactive.IsActive = false

	expired := def("expired", now)
	expired.PaymentEndDate = startOfDay.AddDate(0, 0, -1)

	endsToday := def("ends-today", now)
	endsToday.PaymentEndDate = startOfDay

	postedToday := def("posted-today", now)
	postedToday.LastPostedOn = &startOfDay

	postedYesterday := def("posted-yesterday", now)
	postedYesterday.LastPostedOn = &yesterday

	defs := []Definition{
		def("start-of-day", startOfDay),
		def("end-of-day", endOfDay),
		def("yesterday", yesterday),
		def("tomorrow", endOfDay.Add(time.Nanosecond)),
		inactive,
		expired,
		endsToday,
		postedToday,
		postedYesterday,
	}

	got := SelectDueToday(defs, now, time.UTC)

	ids := make([]string, 0, len(got))
	for _, d := range got {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"start-of-day", "end-of-day", "ends-today", "posted-yesterday"}, ids)
}

func TestSelectDueToday_Empty(t *testing.T) {
	got := SelectDueToday(nil, time.Now(), time.UTC)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelectDueToday_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 23:00 UTC on May 9 is already May 10 in loc.
	now := time.Date(2024, 5, 9, 23, 0, 0, 0, time.UTC)
	// 12:00 on May 10 in loc is 02:00 UTC on May 10, tomorrow in UTC.
	due := time.Date(2024, 5, 10, 12, 0, 0, 0, loc)

	got := SelectDueToday([]Definition{{ID: "a", IsActive: true, PaymentStartDate: due}}, now, loc)
	assert.Len(t, got, 1)

	got = SelectDueToday([]Definition{{ID: "a", IsActive: true, PaymentStartDate: due}}, now, time.UTC)
	assert.Empty(t, got)
}
