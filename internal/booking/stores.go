package booking

import (
	"context"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
)

// Narrow collaborator interfaces consumed by the engine. The postgres repos
// implement these; tests supply in-memory fakes.

type PageStore interface {
	// GetBySlug resolves a booking page by slug. tenantID narrows the lookup
	// when the request arrived through a tenant subdomain; nil means
	// platform-wide slug resolution. Returns nil when not found.
	GetBySlug(ctx context.Context, tenantID *int64, slug string) (*domain.BookingPage, error)
}

type SlotStore interface {
	// ListAvailable returns is_available=true slots for the tenant, further
	// scoped to memberID when non-nil.
	ListAvailable(ctx context.Context, tenantID int64, memberID *int64) ([]domain.AvailabilitySlot, error)
}

type OverrideStore interface {
	// ListForDate returns all overrides for the member on the given calendar
	// date (YYYY-MM-DD, in the member's slot timezone).
	ListForDate(ctx context.Context, tenantID, memberID int64, date string) ([]domain.AvailabilityOverride, error)
}

type AppointmentStore interface {
	// FindConflicting returns non-cancelled appointments whose buffered
	// windows overlap [bufferedStart, bufferedEnd), scoped by memberID when
	// resolved, otherwise by pageID.
	FindConflicting(ctx context.Context, tenantID int64, memberID *int64, pageID int64, bufferedStart, bufferedEnd time.Time) ([]domain.Appointment, error)
	// Insert persists the appointment. The implementation must serialize
	// concurrent inserts for the same resource (per-resource advisory lock),
	// re-check [bufferedStart, bufferedEnd) against existing rows under that
	// lock, and return an error wrapping ErrSlotTaken when the re-check or
	// the raw-range exclusion constraint rejects the row.
	Insert(ctx context.Context, appt *domain.Appointment, bufferedStart, bufferedEnd time.Time) (*domain.Appointment, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Appointment, error)
}

type TenantStore interface {
	// GetOwner returns the tenant owner's member ID, the default-assignment
	// target for pages with no explicit member.
	GetOwner(ctx context.Context, tenantID int64) (int64, error)
}

type IdempotencyStore interface {
	// CheckOrCreate returns the appointment previously recorded for the key,
	// or 0 if the key is new. Passing appointmentID > 0 records the mapping.
	CheckOrCreate(ctx context.Context, key string, appointmentID int64) (int64, error)
}
