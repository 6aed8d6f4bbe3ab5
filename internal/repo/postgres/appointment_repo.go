package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/booking"
	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentRepo interface {
	Insert(ctx context.Context, appt *domain.Appointment, bufferedStart, bufferedEnd time.Time) (*domain.Appointment, error)
	FindConflicting(ctx context.Context, tenantID int64, memberID *int64, pageID int64, bufferedStart, bufferedEnd time.Time) ([]domain.Appointment, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Appointment, error)
	GetByIDWithToken(ctx context.Context, id int64, token string) (*domain.Appointment, error)
	CancelWithToken(ctx context.Context, id int64, token string) (*domain.Appointment, error)
	Cancel(ctx context.Context, tenantID, id int64) (*domain.Appointment, error)
	List(ctx context.Context, tenantID int64, f domain.AppointmentFilter, limit, offset int) ([]domain.Appointment, error)
}

type AppointmentRepoImpl struct{ pool *pgxpool.Pool }

func NewAppointmentRepo(pool *pgxpool.Pool) *AppointmentRepoImpl {
	return &AppointmentRepoImpl{pool: pool}
}

const apptCols = `id, tenant_id, booking_page_id, assigned_member_id,
client_name, client_email, client_phone,
start_time, end_time, status, source, notes,
manage_token, form_response_id, created_at, updated_at`

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.ID, &a.TenantID, &a.BookingPageID, &a.AssignedMemberID,
		&a.ClientName, &a.ClientEmail, &a.ClientPhone,
		&a.StartTime, &a.EndTime, &a.Status, &a.Source, &a.Notes,
		&a.ManageToken, &a.FormResponseID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// resourceKey identifies the conflict domain an appointment books against:
// the resolved member, or the page itself when no member could be resolved.
func resourceKey(memberID *int64, pageID int64) string {
	if memberID != nil {
		return "m:" + strconv.FormatInt(*memberID, 10)
	}
	return "p:" + strconv.FormatInt(pageID, 10)
}

// Insert serializes concurrent bookings for the same resource on a
// transaction-scoped advisory lock, re-checks the buffered window under the
// lock, then inserts. Two simultaneous requests for overlapping windows
// cannot both pass: the loser blocks on the lock, re-checks, and sees the
// winner's row.
func (r *AppointmentRepoImpl) Insert(ctx context.Context, appt *domain.Appointment, bufferedStart, bufferedEnd time.Time) (*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	lockKey := fmt.Sprintf("%d/%s", appt.TenantID, resourceKey(appt.AssignedMemberID, appt.BookingPageID))
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return nil, err
	}

	var overlapping int
	if appt.AssignedMemberID != nil {
		err = tx.QueryRow(ctx, `
			SELECT count(*) FROM appointments
			WHERE tenant_id = $1 AND assigned_member_id = $2
			  AND status <> 'cancelled'
			  AND start_time < $3 AND end_time > $4`,
			appt.TenantID, *appt.AssignedMemberID, bufferedEnd, bufferedStart,
		).Scan(&overlapping)
	} else {
		err = tx.QueryRow(ctx, `
			SELECT count(*) FROM appointments
			WHERE tenant_id = $1 AND booking_page_id = $2
			  AND status <> 'cancelled'
			  AND start_time < $3 AND end_time > $4`,
			appt.TenantID, appt.BookingPageID, bufferedEnd, bufferedStart,
		).Scan(&overlapping)
	}
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, fmt.Errorf("window already booked: %w", booking.ErrSlotTaken)
	}

	const q = `INSERT INTO appointments (
    tenant_id, booking_page_id, assigned_member_id,
    client_name, client_email, client_phone,
    start_time, end_time, status, source, notes,
    manage_token, form_response_id
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
  RETURNING ` + apptCols

	tok := uuid.NewString()
	created, err := scanAppointment(tx.QueryRow(ctx, q,
		appt.TenantID, appt.BookingPageID, appt.AssignedMemberID,
		appt.ClientName, appt.ClientEmail, appt.ClientPhone,
		appt.StartTime, appt.EndTime, appt.Status, appt.Source, appt.Notes,
		tok, appt.FormResponseID,
	))
	if err != nil {
		if isExclusionViolation(err) {
			return nil, fmt.Errorf("window already booked: %w", booking.ErrSlotTaken)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *AppointmentRepoImpl) FindConflicting(ctx context.Context, tenantID int64, memberID *int64, pageID int64, bufferedStart, bufferedEnd time.Time) ([]domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if memberID != nil {
		rows, err = r.pool.Query(ctx, `
			SELECT `+apptCols+` FROM appointments
			WHERE tenant_id = $1 AND assigned_member_id = $2
			  AND status <> 'cancelled'
			  AND start_time < $3 AND end_time > $4
			ORDER BY start_time`,
			tenantID, *memberID, bufferedEnd, bufferedStart)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+apptCols+` FROM appointments
			WHERE tenant_id = $1 AND booking_page_id = $2
			  AND status <> 'cancelled'
			  AND start_time < $3 AND end_time > $4
			ORDER BY start_time`,
			tenantID, pageID, bufferedEnd, bufferedStart)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *AppointmentRepoImpl) GetByID(ctx context.Context, tenantID, id int64) (*domain.Appointment, error) {
	const q = `SELECT ` + apptCols + ` FROM appointments WHERE tenant_id=$1 AND id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAppointment(r.pool.QueryRow(ctx, q, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AppointmentRepoImpl) GetByIDWithToken(ctx context.Context, id int64, token string) (*domain.Appointment, error) {
	const q = `SELECT ` + apptCols + ` FROM appointments WHERE id=$1 AND manage_token=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAppointment(r.pool.QueryRow(ctx, q, id, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AppointmentRepoImpl) CancelWithToken(ctx context.Context, id int64, token string) (*domain.Appointment, error) {
	const q = `UPDATE appointments SET status='cancelled', updated_at=now()
  WHERE id=$1 AND manage_token=$2 AND status <> 'cancelled'
  RETURNING ` + apptCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAppointment(r.pool.QueryRow(ctx, q, id, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AppointmentRepoImpl) Cancel(ctx context.Context, tenantID, id int64) (*domain.Appointment, error) {
	const q = `UPDATE appointments SET status='cancelled', updated_at=now()
  WHERE tenant_id=$1 AND id=$2 AND status <> 'cancelled'
  RETURNING ` + apptCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAppointment(r.pool.QueryRow(ctx, q, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AppointmentRepoImpl) List(ctx context.Context, tenantID int64, f domain.AppointmentFilter, limit, offset int) ([]domain.Appointment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + apptCols + ` FROM appointments WHERE tenant_id=$1`
	args := []any{tenantID}

	if f.Status != nil {
		args = append(args, *f.Status)
		q += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if f.MemberID != nil {
		args = append(args, *f.MemberID)
		q += fmt.Sprintf(" AND assigned_member_id=$%d", len(args))
	}
	if f.PageID != nil {
		args = append(args, *f.PageID)
		q += fmt.Sprintf(" AND booking_page_id=$%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += fmt.Sprintf(" AND start_time < $%d", len(args))
	}

	args = append(args, limit, offset)
	q += fmt.Sprintf(" ORDER BY start_time DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]domain.Appointment, error) {
	as := make([]domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		as = append(as, *a)
	}
	return as, rows.Err()
}

// isExclusionViolation reports SQLSTATE 23P01, raised by the raw-range
// exclusion constraint that backstops the advisory-lock re-check.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

var _ AppointmentRepo = (*AppointmentRepoImpl)(nil)
var _ booking.AppointmentStore = (*AppointmentRepoImpl)(nil)
