package domain

// AvailabilitySlot is a recurring weekly window during which a member can be
// booked. DayOfWeek is 0=Sunday..6=Saturday, evaluated in the slot's own
// timezone. StartTime/EndTime are wall-clock "HH:MM" or "HH:MM:SS" strings in
// that timezone, never UTC.
type AvailabilitySlot struct {
	ID          int64  `json:"id"`
	TenantID    int64  `json:"tenant_id"`
	MemberID    int64  `json:"member_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Timezone    string `json:"timezone"`
	IsAvailable bool   `json:"is_available"`
}

// AvailabilityOverride blocks a member on one calendar date, either entirely
// (no start/end) or for a sub-window.
type AvailabilityOverride struct {
	ID           int64   `json:"id"`
	TenantID     int64   `json:"tenant_id"`
	MemberID     int64   `json:"member_id"`
	OverrideDate string  `json:"override_date"` // YYYY-MM-DD in the slot timezone
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	IsBlocked    bool    `json:"is_blocked"`
}

type AvailabilitySlotReq struct {
	MemberID    int64  `json:"member_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Timezone    string `json:"timezone"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

type AvailabilitySlotPatch struct {
	DayOfWeek   *int    `json:"day_of_week,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
	IsAvailable *bool   `json:"is_available,omitempty"`
}

type AvailabilityOverrideReq struct {
	MemberID     int64   `json:"member_id"`
	OverrideDate string  `json:"override_date"`
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	IsBlocked    *bool   `json:"is_blocked,omitempty"`
}
