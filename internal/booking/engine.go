package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
	"github.com/ItIsRain/OneToOne-sub009/internal/timezone"
	"github.com/ItIsRain/OneToOne-sub009/internal/utils"
	"github.com/ItIsRain/OneToOne-sub009/pkg/events"
	"github.com/ItIsRain/OneToOne-sub009/pkg/logger"
)

// Engine is the booking admission controller. One Book call runs the full
// admission sequence: validate, policy, availability, containment, overrides,
// conflicts, insert. Any failure terminates the call immediately with the
// error kind of the failing stage; there are no retries inside a call.
type Engine struct {
	pages        PageStore
	slots        SlotStore
	overrides    OverrideStore
	appointments AppointmentStore
	tenants      TenantStore
	idempotency  IdempotencyStore
	tz           timezone.Projector
	bus          events.Publisher

	now func() time.Time
}

func NewEngine(
	pages PageStore,
	slots SlotStore,
	overrides OverrideStore,
	appointments AppointmentStore,
	tenants TenantStore,
	idempotency IdempotencyStore,
	tz timezone.Projector,
	bus events.Publisher,
) *Engine {
	return &Engine{
		pages:        pages,
		slots:        slots,
		overrides:    overrides,
		appointments: appointments,
		tenants:      tenants,
		idempotency:  idempotency,
		tz:           tz,
		bus:          bus,
		now:          time.Now,
	}
}

// Book admits or rejects one public booking request. tenantID is non-nil when
// the request arrived through a tenant subdomain. idempotencyKey, when
// non-empty, makes retried submissions return the originally created
// appointment instead of double-booking.
func (e *Engine) Book(ctx context.Context, tenantID *int64, slug string, req *domain.BookAppointmentReq, idempotencyKey string) (*domain.Appointment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	page, err := e.pages.GetBySlug(ctx, tenantID, slug)
	if err != nil {
		return nil, transient(err)
	}
	if page == nil || !page.IsActive {
		return nil, ErrPageNotFound
	}

	// Policy gates run before any availability query. Notice and advance
	// windows are plain durations from now, not calendar days.
	if err := e.checkPolicy(page, req); err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		existingID, err := e.idempotency.CheckOrCreate(ctx, idempotencyKey, 0)
		if err != nil {
			return nil, transient(err)
		}
		if existingID > 0 {
			return e.appointments.GetByID(ctx, page.TenantID, existingID)
		}
	}

	res, err := e.resolveAvailability(ctx, page, req)
	if err != nil {
		return nil, err
	}

	if err := e.checkContainment(res, req); err != nil {
		return nil, err
	}

	if err := e.checkOverrides(ctx, page.TenantID, res, req); err != nil {
		return nil, err
	}

	bufferedStart, bufferedEnd := bufferedWindow(page, req)

	if err := e.checkConflicts(ctx, page, res, bufferedStart, bufferedEnd); err != nil {
		return nil, err
	}

	appt := &domain.Appointment{
		TenantID:         page.TenantID,
		BookingPageID:    page.ID,
		AssignedMemberID: res.memberID,
		ClientName:       utils.NormalizeString(req.ClientName),
		ClientEmail:      utils.NormalizeEmail(req.ClientEmail),
		ClientPhone:      normalizePhonePtr(req.ClientPhone),
		StartTime:        req.StartTime.UTC(),
		EndTime:          req.EndTime.UTC(),
		Status:           domain.AppointmentConfirmed,
		Source:           domain.SourcePublicBooking,
		Notes:            req.Notes,
		FormResponseID:   req.FormResponseID,
	}

	created, err := e.appointments.Insert(ctx, appt, bufferedStart.UTC(), bufferedEnd.UTC())
	if err != nil {
		// A concurrent request can win the window between the conflict read
		// and this insert; the locked re-check inside Insert makes the loser
		// land here.
		if errors.Is(err, ErrSlotTaken) {
			return nil, ErrSlotTaken
		}
		return nil, transient(err)
	}

	if idempotencyKey != "" {
		if _, err := e.idempotency.CheckOrCreate(ctx, idempotencyKey, created.ID); err != nil {
			logger.ErrorContext(ctx, "failed to record idempotency key", "error", err, "appointment_id", created.ID)
		}
	}

	// The appointment is committed; trigger delivery is best-effort and never
	// rolls it back.
	event := events.BookingCreatedEvent{
		AppointmentID: created.ID,
		TenantID:      created.TenantID,
		BookingPageID: created.BookingPageID,
		MemberID:      created.AssignedMemberID,
		ClientName:    created.ClientName,
		ClientEmail:   created.ClientEmail,
		StartTime:     created.StartTime,
		EndTime:       created.EndTime,
		Source:        string(created.Source),
		CreatedAt:     created.CreatedAt,
	}
	if err := e.bus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "failed to publish booking created event", "error", err, "appointment_id", created.ID)
	}

	return created, nil
}

func (e *Engine) checkPolicy(page *domain.BookingPage, req *domain.BookAppointmentReq) error {
	notice := req.StartTime.Sub(e.now())

	if notice < 0 {
		return fmt.Errorf("%w: start_time must be in the future", ErrInvalid)
	}
	if page.MinNoticeHours > 0 && notice < time.Duration(page.MinNoticeHours)*time.Hour {
		return fmt.Errorf("%w: bookings require at least %d hours notice", ErrPolicy, page.MinNoticeHours)
	}
	if page.MaxAdvanceDays > 0 && notice > time.Duration(page.MaxAdvanceDays)*24*time.Hour {
		return fmt.Errorf("%w: bookings can be made at most %d days in advance", ErrPolicy, page.MaxAdvanceDays)
	}
	return nil
}

func validateRequest(req *domain.BookAppointmentReq) error {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("%w: start_time and end_time are required", ErrInvalid)
	}
	if !req.EndTime.After(req.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalid)
	}
	if utils.NormalizeString(req.ClientName) == "" {
		return fmt.Errorf("%w: client_name is required", ErrInvalid)
	}
	if !utils.IsValidEmail(req.ClientEmail) {
		return fmt.Errorf("%w: a valid client_email is required", ErrInvalid)
	}
	return nil
}

func normalizePhonePtr(phone *string) *string {
	if phone == nil {
		return nil
	}
	p := utils.NormalizePhone(*phone)
	if p == "" {
		return nil
	}
	return &p
}
