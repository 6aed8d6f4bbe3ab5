package booking

import (
	"context"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
)

// bufferedWindow expands the requested window by the page's before/after
// buffers. Buffers are plain duration arithmetic on UTC instants; timezones
// play no part here.
func bufferedWindow(page *domain.BookingPage, req *domain.BookAppointmentReq) (time.Time, time.Time) {
	start := req.StartTime.Add(-time.Duration(page.BufferBeforeMinutes) * time.Minute)
	end := req.EndTime.Add(time.Duration(page.BufferAfterMinutes) * time.Minute)
	return start, end
}

// checkConflicts rejects the request when the buffered window overlaps any
// existing non-cancelled appointment's raw window for the same member, or for
// the same page when no member was resolved. This is the fast-path read; the
// authoritative guard is the locked re-check inside AppointmentStore.Insert.
func (e *Engine) checkConflicts(ctx context.Context, page *domain.BookingPage, res *resolution, bufferedStart, bufferedEnd time.Time) error {
	conflicts, err := e.appointments.FindConflicting(ctx, page.TenantID, res.memberID, page.ID, bufferedStart, bufferedEnd)
	if err != nil {
		return transient(err)
	}
	if len(conflicts) > 0 {
		return ErrSlotTaken
	}
	return nil
}
