package booking

import (
	"context"

	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
)

// checkOverrides rejects the request when a date-specific override blocks the
// resolved date entirely or overlaps the requested window. Skipped when no
// member was resolvable: overrides are member-scoped rows and there is nothing
// to look them up by.
func (e *Engine) checkOverrides(ctx context.Context, tenantID int64, res *resolution, req *domain.BookAppointmentReq) error {
	if res.memberID == nil {
		return nil
	}

	overrides, err := e.overrides.ListForDate(ctx, tenantID, *res.memberID, res.date)
	if err != nil {
		return transient(err)
	}
	if len(overrides) == 0 {
		return nil
	}

	startWall, err := e.tz.TimeOfDay(req.StartTime, res.timezone)
	if err != nil {
		return transient(err)
	}
	endWall, err := e.tz.TimeOfDay(req.EndTime, res.timezone)
	if err != nil {
		return transient(err)
	}

	for _, o := range overrides {
		if !o.IsBlocked {
			continue
		}
		if o.StartTime == nil || o.EndTime == nil {
			return ErrDateBlocked
		}

		blockStart := normalizeClock(*o.StartTime)
		blockEnd := normalizeClock(*o.EndTime)

		// Strict interval overlap: [startWall, endWall) against [blockStart, blockEnd).
		if startWall < blockEnd && endWall > blockStart {
			return ErrTimeBlocked
		}
	}
	return nil
}
