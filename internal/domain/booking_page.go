package domain

import "time"

// BookingPage is a tenant-configured public endpoint through which external
// clients request appointments. Read-only to the booking engine.
type BookingPage struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`

	AssignedMemberID *int64 `json:"assigned_member_id,omitempty"`

	MinNoticeHours      int  `json:"min_notice_hours"`
	MaxAdvanceDays      int  `json:"max_advance_days"`
	BufferBeforeMinutes int  `json:"buffer_before_minutes"`
	BufferAfterMinutes  int  `json:"buffer_after_minutes"`
	IsActive            bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BookingPageCreateReq struct {
	Slug                string `json:"slug"`
	Title               string `json:"title"`
	AssignedMemberID    *int64 `json:"assigned_member_id,omitempty"`
	MinNoticeHours      int    `json:"min_notice_hours"`
	MaxAdvanceDays      int    `json:"max_advance_days"`
	BufferBeforeMinutes int    `json:"buffer_before_minutes"`
	BufferAfterMinutes  int    `json:"buffer_after_minutes"`
}

type BookingPagePatch struct {
	Title               *string `json:"title,omitempty"`
	AssignedMemberID    *int64  `json:"assigned_member_id,omitempty"`
	MinNoticeHours      *int    `json:"min_notice_hours,omitempty"`
	MaxAdvanceDays      *int    `json:"max_advance_days,omitempty"`
	BufferBeforeMinutes *int    `json:"buffer_before_minutes,omitempty"`
	BufferAfterMinutes  *int    `json:"buffer_after_minutes,omitempty"`
	IsActive            *bool   `json:"is_active,omitempty"`
}

// PublicBookingPage is the subset of page config exposed on the public
// booking form endpoint.
type PublicBookingPage struct {
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	MinNoticeHours int    `json:"min_notice_hours"`
	MaxAdvanceDays int    `json:"max_advance_days"`
}

type Tenant struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Subdomain     string `json:"subdomain"`
	OwnerMemberID int64  `json:"owner_member_id"`
}
