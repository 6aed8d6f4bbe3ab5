package booking

import (
	"context"
	"fmt"

	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
)

// resolution is the output of availability resolution for one booking attempt.
type resolution struct {
	slots    []domain.AvailabilitySlot // candidates for the requested weekday
	timezone string                    // canonical timezone, from the first resolved slot
	memberID *int64                    // explicit assignment or owner fallback; nil in degraded mode
	date     string                    // YYYY-MM-DD in the canonical timezone, for override lookup
}

// resolveAvailability loads the member's weekly slots and filters them to the
// weekday of the requested start.
//
// The first resolved slot's timezone is treated as canonical for weekday and
// date resolution. Slots for one member are expected to share a timezone; the
// data layer does not enforce that, so containment below still evaluates each
// slot in its own timezone.
func (e *Engine) resolveAvailability(ctx context.Context, page *domain.BookingPage, req *domain.BookAppointmentReq) (*resolution, error) {
	memberID := page.AssignedMemberID

	slots, err := e.slots.ListAvailable(ctx, page.TenantID, memberID)
	if err != nil {
		return nil, transient(err)
	}

	// Pages without an explicit member fall back to the tenant owner's slots.
	if len(slots) == 0 && page.AssignedMemberID == nil {
		ownerID, err := e.tenants.GetOwner(ctx, page.TenantID)
		if err != nil {
			return nil, transient(err)
		}
		memberID = &ownerID
		slots, err = e.slots.ListAvailable(ctx, page.TenantID, memberID)
		if err != nil {
			return nil, transient(err)
		}
	}

	if len(slots) == 0 {
		return nil, ErrNoAvailability
	}

	tz := slots[0].Timezone

	day, err := e.tz.DayOfWeek(req.StartTime, tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAvailability, err)
	}

	candidates := slots[:0:0]
	for _, s := range slots {
		if s.DayOfWeek == day {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoAvailability
	}

	date, err := e.tz.DateString(req.StartTime, tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAvailability, err)
	}

	return &resolution{
		slots:    candidates,
		timezone: tz,
		memberID: memberID,
		date:     date,
	}, nil
}

// checkContainment verifies the requested window fits inside at least one
// candidate slot. Both sides are compared as wall-clock "HH:MM:SS" strings in
// that slot's own timezone; lexical order equals chronological order at fixed
// width.
func (e *Engine) checkContainment(res *resolution, req *domain.BookAppointmentReq) error {
	for _, s := range res.slots {
		startWall, err := e.tz.TimeOfDay(req.StartTime, s.Timezone)
		if err != nil {
			continue
		}
		endWall, err := e.tz.TimeOfDay(req.EndTime, s.Timezone)
		if err != nil {
			continue
		}

		slotStart := normalizeClock(s.StartTime)
		slotEnd := normalizeClock(s.EndTime)

		if startWall >= slotStart && endWall <= slotEnd {
			return nil
		}
	}
	return ErrOutsideHours
}

// normalizeClock pads "HH:MM" to "HH:MM:SS".
func normalizeClock(s string) string {
	if len(s) == 5 {
		return s + ":00"
	}
	return s
}
