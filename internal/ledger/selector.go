package ledger

import (
	"context"
	"time"
)

// Selector picks the recurring definitions due on a given calendar day.
type Selector struct {
	store Store
	loc   *time.Location
}

// NewSelector creates a Selector that evaluates calendar days in loc.
func NewSelector(store Store, loc *time.Location) *Selector {
	if loc == nil {
		loc = time.UTC
	}
	return &Selector{store: store, loc: loc}
}

// Select loads the definitions due on the day containing now. Store failures
// are returned unchanged so unavailability reaches the caller.
func (s *Selector) Select(ctx context.Context, now time.Time) ([]Definition, error) {
	start, end := DayBounds(now, s.loc)
	defs, err := s.store.FindDefinitionsDueOn(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return SelectDueToday(defs, now, s.loc), nil
}

// SelectDueToday filters defs down to the ones to post on the day containing
// now. A definition qualifies when it is active, its due date falls inside the
// day (both ends inclusive), its end date has not passed and it has not been
// posted yet today.
func SelectDueToday(defs []Definition, now time.Time, loc *time.Location) []Definition {
	if loc == nil {
		loc = time.UTC
	}
	start, end := DayBounds(now, loc)

	due := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if !d.IsActive {
			continue
		}
		if d.PaymentStartDate.Before(start) || d.PaymentStartDate.After(end) {
			continue
		}
		if pastEnd(d.PaymentStartDate, d.PaymentEndDate, loc) {
			continue
		}
		if d.LastPostedOn != nil && !d.LastPostedOn.Before(start) && !d.LastPostedOn.After(end) {
			continue
		}
		due = append(due, d)
	}
	return due
}

// pastEnd reports whether due lies after the calendar day of endDate. A zero
// end date never expires.
func pastEnd(due, endDate time.Time, loc *time.Location) bool {
	if endDate.IsZero() {
		return false
	}
	_, lastInstant := DayBounds(endDate, loc)
	return due.After(lastInstant)
}
