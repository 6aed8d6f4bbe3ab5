package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
	"github.com/ItIsRain/OneToOne-sub009/internal/timezone"
)

// ---------- Mocks ----------

type mockPages struct {
	page *domain.BookingPage
	err  error
}

func (m *mockPages) GetBySlug(_ context.Context, _ *int64, _ string) (*domain.BookingPage, error) {
	return m.page, m.err
}

type mockSlots struct {
	byMember map[int64][]domain.AvailabilitySlot
	tenant   []domain.AvailabilitySlot // returned for nil memberID
	calls    int
	err      error
}

func (m *mockSlots) ListAvailable(_ context.Context, _ int64, memberID *int64) ([]domain.AvailabilitySlot, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if memberID != nil {
		return m.byMember[*memberID], nil
	}
	return m.tenant, nil
}

type mockOverrides struct {
	rows []domain.AvailabilityOverride
	err  error
}

func (m *mockOverrides) ListForDate(_ context.Context, _, memberID int64, date string) ([]domain.AvailabilityOverride, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.AvailabilityOverride
	for _, o := range m.rows {
		if o.MemberID == memberID && o.OverrideDate == date {
			out = append(out, o)
		}
	}
	return out, nil
}

type mockAppointments struct {
	existing  []domain.Appointment
	nextID    int64
	inserted  []*domain.Appointment
	insertErr error
	findErr   error
}

func (m *mockAppointments) overlapping(memberID *int64, pageID int64, bufferedStart, bufferedEnd time.Time) []domain.Appointment {
	var out []domain.Appointment
	for _, a := range m.existing {
		if a.Status == domain.AppointmentCancelled {
			continue
		}
		if memberID != nil {
			if a.AssignedMemberID == nil || *a.AssignedMemberID != *memberID {
				continue
			}
		} else if a.BookingPageID != pageID {
			continue
		}
		if a.StartTime.Before(bufferedEnd) && a.EndTime.After(bufferedStart) {
			out = append(out, a)
		}
	}
	return out
}

func (m *mockAppointments) FindConflicting(_ context.Context, _ int64, memberID *int64, pageID int64, bufferedStart, bufferedEnd time.Time) ([]domain.Appointment, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.overlapping(memberID, pageID, bufferedStart, bufferedEnd), nil
}

func (m *mockAppointments) Insert(_ context.Context, appt *domain.Appointment, bufferedStart, bufferedEnd time.Time) (*domain.Appointment, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	if len(m.overlapping(appt.AssignedMemberID, appt.BookingPageID, bufferedStart, bufferedEnd)) > 0 {
		return nil, fmt.Errorf("window already booked: %w", ErrSlotTaken)
	}
	m.nextID++
	created := *appt
	created.ID = m.nextID
	created.ManageToken = fmt.Sprintf("tok-%d", m.nextID)
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	m.existing = append(m.existing, created)
	m.inserted = append(m.inserted, &created)
	return &created, nil
}

func (m *mockAppointments) GetByID(_ context.Context, _, id int64) (*domain.Appointment, error) {
	for i := range m.existing {
		if m.existing[i].ID == id {
			return &m.existing[i], nil
		}
	}
	return nil, nil
}

type mockTenants struct {
	ownerID int64
	calls   int
	err     error
}

func (m *mockTenants) GetOwner(_ context.Context, _ int64) (int64, error) {
	m.calls++
	return m.ownerID, m.err
}

type mockIdempotency struct {
	seen map[string]int64
}

func newMockIdempotency() *mockIdempotency {
	return &mockIdempotency{seen: make(map[string]int64)}
}

func (m *mockIdempotency) CheckOrCreate(_ context.Context, key string, appointmentID int64) (int64, error) {
	if id, ok := m.seen[key]; ok {
		return id, nil
	}
	if appointmentID > 0 {
		m.seen[key] = appointmentID
	}
	return 0, nil
}

type mockBus struct {
	subjects []string
	err      error
}

func (m *mockBus) Publish(_ context.Context, subject string, _ interface{}) error {
	m.subjects = append(m.subjects, subject)
	return m.err
}

func (m *mockBus) Close() error { return nil }

// ---------- Fixtures ----------

// now is pinned to Monday 2025-06-09 09:00 UTC; 2025-06-10 is a Tuesday.
var testNow = time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC)

const (
	testTenant = int64(1)
	testMember = int64(7)
)

type fixture struct {
	pages        *mockPages
	slots        *mockSlots
	overrides    *mockOverrides
	appointments *mockAppointments
	tenants      *mockTenants
	idempotency  *mockIdempotency
	bus          *mockBus
	engine       *Engine
}

func newFixture(page *domain.BookingPage, slots []domain.AvailabilitySlot) *fixture {
	f := &fixture{
		pages:        &mockPages{page: page},
		slots:        &mockSlots{byMember: map[int64][]domain.AvailabilitySlot{testMember: slots}},
		overrides:    &mockOverrides{},
		appointments: &mockAppointments{},
		tenants:      &mockTenants{ownerID: testMember},
		idempotency:  newMockIdempotency(),
		bus:          &mockBus{},
	}
	f.engine = NewEngine(f.pages, f.slots, f.overrides, f.appointments, f.tenants, f.idempotency, timezone.NewProjector(), f.bus)
	f.engine.now = func() time.Time { return testNow }
	return f
}

func testPage() *domain.BookingPage {
	member := testMember
	return &domain.BookingPage{
		ID:               10,
		TenantID:         testTenant,
		Slug:             "intro-call",
		Title:            "Intro Call",
		AssignedMemberID: &member,
		MaxAdvanceDays:   60,
		IsActive:         true,
	}
}

func tuesdaySlot(start, end, tz string) domain.AvailabilitySlot {
	return domain.AvailabilitySlot{
		ID: 1, TenantID: testTenant, MemberID: testMember,
		DayOfWeek: 2, StartTime: start, EndTime: end, Timezone: tz, IsAvailable: true,
	}
}

func request(start, end time.Time) *domain.BookAppointmentReq {
	return &domain.BookAppointmentReq{
		StartTime:   start,
		EndTime:     end,
		ClientName:  "Ada Lovelace",
		ClientEmail: "ada@example.com",
	}
}

func utc(day, hour, min int) time.Time {
	return time.Date(2025, 6, day, hour, min, 0, 0, time.UTC)
}

// ---------- Tests ----------

func TestBookAccepted(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("10:00", "12:00", "UTC")})

	appt, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 10, 30)), "")
	if err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
	if appt.ID == 0 || appt.ManageToken == "" {
		t.Fatalf("created appointment missing identity: %+v", appt)
	}
	if appt.Status != domain.AppointmentConfirmed {
		t.Errorf("status = %q, want confirmed", appt.Status)
	}
	if appt.AssignedMemberID == nil || *appt.AssignedMemberID != testMember {
		t.Errorf("assigned member = %v, want %d", appt.AssignedMemberID, testMember)
	}
	if len(f.bus.subjects) != 1 || f.bus.subjects[0] != "booking.created" {
		t.Errorf("published subjects = %v, want [booking.created]", f.bus.subjects)
	}
}

func TestBookOutsideHours(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("10:00", "12:00", "UTC")})

	_, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 12, 0), utc(10, 12, 30)), "")
	if !errors.Is(err, ErrOutsideHours) {
		t.Fatalf("err = %v, want ErrOutsideHours", err)
	}
}

func TestBookWrongDay(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("10:00", "12:00", "UTC")})

	// 2025-06-11 is a Wednesday.
	_, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(11, 10, 0), utc(11, 10, 30)), "")
	if !errors.Is(err, ErrNoAvailability) {
		t.Fatalf("err = %v, want ErrNoAvailability", err)
	}
}

func TestBookSplitSlots(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{
		tuesdaySlot("09:00", "12:00", "UTC"),
		tuesdaySlot("13:00", "17:00", "UTC"),
	})

	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 13, 30), utc(10, 14, 0)), ""); err != nil {
		t.Fatalf("afternoon slot should fit: %v", err)
	}

	f = newFixture(testPage(), []domain.AvailabilitySlot{
		tuesdaySlot("09:00", "12:00", "UTC"),
		tuesdaySlot("13:00", "17:00", "UTC"),
	})
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 12, 15), utc(10, 12, 45)), ""); !errors.Is(err, ErrOutsideHours) {
		t.Fatalf("gap between slots should reject: %v", err)
	}
}

func TestDateBlockedOverride(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("10:00", "12:00", "UTC")})
	f.overrides.rows = []domain.AvailabilityOverride{
		{TenantID: testTenant, MemberID: testMember, OverrideDate: "2025-06-10", IsBlocked: true},
	}

	_, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 10, 30)), "")
	if !errors.Is(err, ErrDateBlocked) {
		t.Fatalf("err = %v, want ErrDateBlocked", err)
	}
}

func TestTimeBlockedOverride(t *testing.T) {
	start, end := "10:00", "11:00"
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	f.overrides.rows = []domain.AvailabilityOverride{
		{TenantID: testTenant, MemberID: testMember, OverrideDate: "2025-06-10", StartTime: &start, EndTime: &end, IsBlocked: true},
	}

	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 30), utc(10, 11, 30)), ""); !errors.Is(err, ErrTimeBlocked) {
		t.Fatalf("overlapping block: err = %v, want ErrTimeBlocked", err)
	}
	// Adjacent to the block is allowed: strict overlap, half-open intervals.
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 11, 0), utc(10, 11, 30)), ""); err != nil {
		t.Fatalf("window starting at block end should pass: %v", err)
	}
}

func TestUnblockedOverrideIgnored(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("10:00", "12:00", "UTC")})
	f.overrides.rows = []domain.AvailabilityOverride{
		{TenantID: testTenant, MemberID: testMember, OverrideDate: "2025-06-10", IsBlocked: false},
	}

	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 10, 30)), ""); err != nil {
		t.Fatalf("non-blocking override must not reject: %v", err)
	}
}

func TestBufferedConflict(t *testing.T) {
	page := testPage()
	page.BufferBeforeMinutes = 15
	page.BufferAfterMinutes = 15
	member := testMember

	f := newFixture(page, []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	f.appointments.existing = []domain.Appointment{{
		ID: 50, TenantID: testTenant, BookingPageID: page.ID, AssignedMemberID: &member,
		StartTime: utc(10, 10, 0), EndTime: utc(10, 11, 0), Status: domain.AppointmentConfirmed,
	}}

	// 11:05 buffered back to 10:50 still overlaps the 10:00-11:00 appointment.
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 11, 5), utc(10, 11, 30)), ""); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken", err)
	}

	// 11:16 buffered back to 11:01 clears it. Buffers widen the request once;
	// existing appointments are compared on their raw windows.
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 11, 16), utc(10, 11, 45)), ""); err != nil {
		t.Fatalf("expected acceptance past the buffer, got %v", err)
	}
}

func TestBufferSymmetry(t *testing.T) {
	member := testMember
	existing := domain.Appointment{
		ID: 50, TenantID: testTenant, BookingPageID: 10, AssignedMemberID: &member,
		StartTime: utc(10, 10, 0), EndTime: utc(10, 11, 0), Status: domain.AppointmentConfirmed,
	}

	// Zero buffers: back-to-back is fine.
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	f.appointments.existing = []domain.Appointment{existing}
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 11, 0), utc(10, 11, 30)), ""); err != nil {
		t.Fatalf("adjacent booking with zero buffer: %v", err)
	}

	// Any buffer makes the same adjacency overlap.
	page := testPage()
	page.BufferBeforeMinutes = 5
	f = newFixture(page, []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	f.appointments.existing = []domain.Appointment{existing}
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 11, 0), utc(10, 11, 30)), ""); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken with buffer", err)
	}
}

func TestCancelledAppointmentsIgnored(t *testing.T) {
	member := testMember
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	f.appointments.existing = []domain.Appointment{{
		ID: 50, TenantID: testTenant, BookingPageID: 10, AssignedMemberID: &member,
		StartTime: utc(10, 10, 0), EndTime: utc(10, 11, 0), Status: domain.AppointmentCancelled,
	}}

	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 11, 0)), ""); err != nil {
		t.Fatalf("cancelled rows must not conflict: %v", err)
	}
}

func TestMinNoticePolicy(t *testing.T) {
	page := testPage()
	page.MinNoticeHours = 24
	f := newFixture(page, []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})

	// Two hours from the pinned now.
	_, err := f.engine.Book(context.Background(), nil, "intro-call", request(testNow.Add(2*time.Hour), testNow.Add(3*time.Hour)), "")
	if !errors.Is(err, ErrPolicy) {
		t.Fatalf("err = %v, want ErrPolicy", err)
	}
	if f.slots.calls != 0 {
		t.Errorf("policy rejection must happen before any availability query, saw %d queries", f.slots.calls)
	}
}

func TestMaxAdvancePolicy(t *testing.T) {
	page := testPage()
	page.MaxAdvanceDays = 7
	f := newFixture(page, []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})

	start := testNow.Add(8 * 24 * time.Hour)
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(start, start.Add(30*time.Minute)), ""); !errors.Is(err, ErrPolicy) {
		t.Fatalf("err = %v, want ErrPolicy beyond advance window", err)
	}
}

func TestPastStartRejected(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})

	start := testNow.Add(-time.Hour)
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(start, start.Add(time.Hour)), ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid for past start", err)
	}
}

func TestValidation(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})

	cases := []struct {
		name string
		req  *domain.BookAppointmentReq
	}{
		{"zero times", &domain.BookAppointmentReq{ClientName: "A", ClientEmail: "a@b.co"}},
		{"end before start", request(utc(10, 11, 0), utc(10, 10, 0))},
		{"missing name", &domain.BookAppointmentReq{StartTime: utc(10, 10, 0), EndTime: utc(10, 10, 30), ClientEmail: "a@b.co"}},
		{"bad email", &domain.BookAppointmentReq{StartTime: utc(10, 10, 0), EndTime: utc(10, 10, 30), ClientName: "A", ClientEmail: "not-an-email"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.engine.Book(context.Background(), nil, "intro-call", tc.req, ""); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestPageNotFound(t *testing.T) {
	f := newFixture(nil, nil)
	if _, err := f.engine.Book(context.Background(), nil, "missing", request(utc(10, 10, 0), utc(10, 10, 30)), ""); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("err = %v, want ErrPageNotFound", err)
	}

	page := testPage()
	page.IsActive = false
	f = newFixture(page, []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 10, 30)), ""); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("err = %v, want ErrPageNotFound for inactive page", err)
	}
}

func TestNoAvailability(t *testing.T) {
	f := newFixture(testPage(), nil)
	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 10, 30)), ""); !errors.Is(err, ErrNoAvailability) {
		t.Fatalf("err = %v, want ErrNoAvailability", err)
	}
}

func TestOwnerFallback(t *testing.T) {
	page := testPage()
	page.AssignedMemberID = nil
	f := newFixture(page, []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	f.slots.tenant = nil // unscoped query finds nothing; owner lookup must kick in

	appt, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 10, 30)), "")
	if err != nil {
		t.Fatalf("owner fallback should resolve availability: %v", err)
	}
	if f.tenants.calls != 1 {
		t.Errorf("owner lookups = %d, want 1", f.tenants.calls)
	}
	if appt.AssignedMemberID == nil || *appt.AssignedMemberID != testMember {
		t.Errorf("assigned member = %v, want owner %d", appt.AssignedMemberID, testMember)
	}
}

func TestTimezoneBoundary(t *testing.T) {
	// Monday 21:00-23:00 in New York. 2025-06-10 01:30 UTC is still Monday
	// evening there even though UTC has rolled into Tuesday.
	slot := tuesdaySlot("21:00", "23:00", "America/New_York")
	slot.DayOfWeek = 1
	f := newFixture(testPage(), []domain.AvailabilitySlot{slot})

	if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(time.Date(2025, 6, 10, 1, 30, 0, 0, time.UTC), time.Date(2025, 6, 10, 2, 0, 0, 0, time.UTC)), ""); err != nil {
		t.Fatalf("UTC-boundary request should fit the Monday slot: %v", err)
	}
}

func TestDeterministicRejection(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("10:00", "12:00", "UTC")})
	req := request(utc(10, 12, 0), utc(10, 12, 30))

	first, ferr := f.engine.Book(context.Background(), nil, "intro-call", req, "")
	second, serr := f.engine.Book(context.Background(), nil, "intro-call", req, "")
	if first != nil || second != nil {
		t.Fatal("rejections must not create appointments")
	}
	if !errors.Is(ferr, ErrOutsideHours) || !errors.Is(serr, ErrOutsideHours) {
		t.Fatalf("decisions differ: %v vs %v", ferr, serr)
	}
}

func TestTransientClassification(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	f.slots.err = errors.New("connection reset")

	_, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 10, 30)), "")
	if !IsTransient(err) {
		t.Fatalf("store failure should be transient, got %v", err)
	}
	if IsBusinessRejection(err) {
		t.Error("a transient failure must not read as a business rejection")
	}
}

func TestInsertRaceSurfacesSlotTaken(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	f.appointments.insertErr = fmt.Errorf("window already booked: %w", ErrSlotTaken)

	_, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 10, 30)), "")
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken from the locked re-check", err)
	}
	if IsTransient(err) {
		t.Error("a lost race is a business rejection, not a transient failure")
	}
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	f.bus.err = errors.New("nats unavailable")

	appt, err := f.engine.Book(context.Background(), nil, "intro-call", request(utc(10, 10, 0), utc(10, 10, 30)), "")
	if err != nil {
		t.Fatalf("publish failure must not propagate: %v", err)
	}
	if appt == nil || appt.ID == 0 {
		t.Fatal("appointment should still be committed")
	}
}

func TestIdempotentReplay(t *testing.T) {
	f := newFixture(testPage(), []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})
	req := request(utc(10, 10, 0), utc(10, 10, 30))

	first, err := f.engine.Book(context.Background(), nil, "intro-call", req, "retry-key-1")
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}

	second, err := f.engine.Book(context.Background(), nil, "intro-call", req, "retry-key-1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("replay created a new appointment: %d vs %d", second.ID, first.ID)
	}
	if len(f.appointments.inserted) != 1 {
		t.Fatalf("inserts = %d, want 1", len(f.appointments.inserted))
	}
}

func TestNoOverlapInvariant(t *testing.T) {
	page := testPage()
	page.BufferBeforeMinutes = 10
	page.BufferAfterMinutes = 10
	f := newFixture(page, []domain.AvailabilitySlot{tuesdaySlot("09:00", "17:00", "UTC")})

	accepted := 0
	for _, w := range [][2]time.Time{
		{utc(10, 9, 0), utc(10, 9, 30)},
		{utc(10, 9, 30), utc(10, 10, 0)}, // buffered overlap with the first
		{utc(10, 10, 0), utc(10, 10, 30)},
		{utc(10, 11, 0), utc(10, 11, 30)},
	} {
		if _, err := f.engine.Book(context.Background(), nil, "intro-call", request(w[0], w[1]), ""); err == nil {
			accepted++
		} else if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("unexpected rejection kind: %v", err)
		}
	}

	// For every accepted pair, the later one's buffered window must clear the
	// earlier one's raw window: that is exactly what admission enforced.
	for i, a := range f.appointments.existing {
		for j, b := range f.appointments.existing {
			if i >= j {
				continue
			}
			bs := b.StartTime.Add(-10 * time.Minute)
			be := b.EndTime.Add(10 * time.Minute)
			if bs.Before(a.EndTime) && be.After(a.StartTime) {
				t.Fatalf("appointment %d's buffered window overlaps appointment %d", b.ID, a.ID)
			}
		}
	}
	if accepted == 0 {
		t.Fatal("expected at least one acceptance")
	}
}
