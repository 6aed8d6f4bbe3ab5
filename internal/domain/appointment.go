package domain

import "time"

type AppointmentStatus string

const (
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	switch AppointmentStatus(s) {
	case AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted, AppointmentNoShow:
		return AppointmentStatus(s), true
	default:
		return "", false
	}
}

type AppointmentSource string

const (
	SourcePublicBooking AppointmentSource = "public_booking"
	SourceManual        AppointmentSource = "manual"
)

type Appointment struct {
	ID            int64             `json:"id"`
	TenantID      int64             `json:"tenant_id"`
	BookingPageID int64             `json:"booking_page_id"`

	AssignedMemberID *int64 `json:"assigned_member_id,omitempty"`

	ClientName  string  `json:"client_name"`
	ClientEmail string  `json:"client_email"`
	ClientPhone *string `json:"client_phone,omitempty"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status AppointmentStatus `json:"status"`
	Source AppointmentSource `json:"source"`
	Notes  string            `json:"notes"`

	ManageToken string `json:"manage_token,omitempty"`

	FormResponseID *int64 `json:"form_response_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookAppointmentReq is the public booking submission body.
type BookAppointmentReq struct {
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ClientName     string    `json:"client_name"`
	ClientEmail    string    `json:"client_email"`
	ClientPhone    *string   `json:"client_phone,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	FormResponseID *int64    `json:"form_response_id,omitempty"`
}

// AppointmentFilter narrows admin appointment listings.
type AppointmentFilter struct {
	Status   *AppointmentStatus
	MemberID *int64
	PageID   *int64
	From     *time.Time
	To       *time.Time
}
