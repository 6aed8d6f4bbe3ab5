package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/booking"
	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityRepo interface {
	ListAvailable(ctx context.Context, tenantID int64, memberID *int64) ([]domain.AvailabilitySlot, error)
	ListSlots(ctx context.Context, tenantID int64, memberID *int64) ([]domain.AvailabilitySlot, error)
	CreateSlot(ctx context.Context, tenantID int64, in *domain.AvailabilitySlotReq) (*domain.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, tenantID, id int64, patch domain.AvailabilitySlotPatch) (*domain.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, tenantID, id int64) (bool, error)

	ListForDate(ctx context.Context, tenantID, memberID int64, date string) ([]domain.AvailabilityOverride, error)
	ListOverrides(ctx context.Context, tenantID, memberID int64) ([]domain.AvailabilityOverride, error)
	CreateOverride(ctx context.Context, tenantID int64, in *domain.AvailabilityOverrideReq) (*domain.AvailabilityOverride, error)
	DeleteOverride(ctx context.Context, tenantID, id int64) (bool, error)
}

type AvailabilityRepoImpl struct{ pool *pgxpool.Pool }

func NewAvailabilityRepo(pool *pgxpool.Pool) *AvailabilityRepoImpl {
	return &AvailabilityRepoImpl{pool: pool}
}

const slotCols = `id, tenant_id, member_id, day_of_week, start_time, end_time, timezone, is_available`

func scanSlot(row pgx.Row) (*domain.AvailabilitySlot, error) {
	var s domain.AvailabilitySlot
	err := row.Scan(
		&s.ID, &s.TenantID, &s.MemberID, &s.DayOfWeek,
		&s.StartTime, &s.EndTime, &s.Timezone, &s.IsAvailable,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *AvailabilityRepoImpl) ListAvailable(ctx context.Context, tenantID int64, memberID *int64) ([]domain.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if memberID != nil {
		rows, err = r.pool.Query(ctx, `
			SELECT `+slotCols+` FROM availability_slots
			WHERE tenant_id=$1 AND member_id=$2 AND is_available
			ORDER BY day_of_week, start_time`,
			tenantID, *memberID)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+slotCols+` FROM availability_slots
			WHERE tenant_id=$1 AND is_available
			ORDER BY day_of_week, start_time`,
			tenantID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func (r *AvailabilityRepoImpl) ListSlots(ctx context.Context, tenantID int64, memberID *int64) ([]domain.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if memberID != nil {
		rows, err = r.pool.Query(ctx, `
			SELECT `+slotCols+` FROM availability_slots
			WHERE tenant_id=$1 AND member_id=$2
			ORDER BY day_of_week, start_time`,
			tenantID, *memberID)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+slotCols+` FROM availability_slots
			WHERE tenant_id=$1
			ORDER BY member_id, day_of_week, start_time`,
			tenantID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func (r *AvailabilityRepoImpl) CreateSlot(ctx context.Context, tenantID int64, in *domain.AvailabilitySlotReq) (*domain.AvailabilitySlot, error) {
	const q = `INSERT INTO availability_slots (
    tenant_id, member_id, day_of_week, start_time, end_time, timezone, is_available
  ) VALUES ($1,$2,$3,$4,$5,$6,$7)
  RETURNING ` + slotCols

	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSlot(r.pool.QueryRow(ctx, q,
		tenantID, in.MemberID, in.DayOfWeek, in.StartTime, in.EndTime, in.Timezone, available,
	))
}

// slotUpdateQuery builds the dynamic SET list for a slot patch. The seed
// assignment must be a plain column: id is GENERATED ALWAYS AS IDENTITY and
// postgres rejects any non-DEFAULT assignment to it (428C9).
func slotUpdateQuery(tenantID, id int64, patch domain.AvailabilitySlotPatch) (string, []any) {
	q := `UPDATE availability_slots SET member_id=member_id`
	args := []any{tenantID, id}

	set := func(col string, v any) {
		args = append(args, v)
		q += fmt.Sprintf(", %s=$%d", col, len(args))
	}
	if patch.DayOfWeek != nil {
		set("day_of_week", *patch.DayOfWeek)
	}
	if patch.StartTime != nil {
		set("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		set("end_time", *patch.EndTime)
	}
	if patch.Timezone != nil {
		set("timezone", *patch.Timezone)
	}
	if patch.IsAvailable != nil {
		set("is_available", *patch.IsAvailable)
	}

	q += ` WHERE tenant_id=$1 AND id=$2 RETURNING ` + slotCols
	return q, args
}

func (r *AvailabilityRepoImpl) UpdateSlot(ctx context.Context, tenantID, id int64, patch domain.AvailabilitySlotPatch) (*domain.AvailabilitySlot, error) {
	q, args := slotUpdateQuery(tenantID, id, patch)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := scanSlot(r.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *AvailabilityRepoImpl) DeleteSlot(ctx context.Context, tenantID, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx,
		`DELETE FROM availability_slots WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

const overrideCols = `id, tenant_id, member_id, override_date, start_time, end_time, is_blocked`

func scanOverride(row pgx.Row) (*domain.AvailabilityOverride, error) {
	var o domain.AvailabilityOverride
	err := row.Scan(
		&o.ID, &o.TenantID, &o.MemberID, &o.OverrideDate,
		&o.StartTime, &o.EndTime, &o.IsBlocked,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *AvailabilityRepoImpl) ListForDate(ctx context.Context, tenantID, memberID int64, date string) ([]domain.AvailabilityOverride, error) {
	const q = `SELECT ` + overrideCols + ` FROM availability_overrides
  WHERE tenant_id=$1 AND member_id=$2 AND override_date=$3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, tenantID, memberID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOverrides(rows)
}

func (r *AvailabilityRepoImpl) ListOverrides(ctx context.Context, tenantID, memberID int64) ([]domain.AvailabilityOverride, error) {
	const q = `SELECT ` + overrideCols + ` FROM availability_overrides
  WHERE tenant_id=$1 AND member_id=$2 ORDER BY override_date`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOverrides(rows)
}

func (r *AvailabilityRepoImpl) CreateOverride(ctx context.Context, tenantID int64, in *domain.AvailabilityOverrideReq) (*domain.AvailabilityOverride, error) {
	const q = `INSERT INTO availability_overrides (
    tenant_id, member_id, override_date, start_time, end_time, is_blocked
  ) VALUES ($1,$2,$3,$4,$5,$6)
  RETURNING ` + overrideCols

	blocked := true
	if in.IsBlocked != nil {
		blocked = *in.IsBlocked
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOverride(r.pool.QueryRow(ctx, q,
		tenantID, in.MemberID, in.OverrideDate, in.StartTime, in.EndTime, blocked,
	))
}

func (r *AvailabilityRepoImpl) DeleteOverride(ctx context.Context, tenantID, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx,
		`DELETE FROM availability_overrides WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func collectSlots(rows pgx.Rows) ([]domain.AvailabilitySlot, error) {
	ss := make([]domain.AvailabilitySlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		ss = append(ss, *s)
	}
	return ss, rows.Err()
}

func collectOverrides(rows pgx.Rows) ([]domain.AvailabilityOverride, error) {
	os := make([]domain.AvailabilityOverride, 0)
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		os = append(os, *o)
	}
	return os, rows.Err()
}

var _ AvailabilityRepo = (*AvailabilityRepoImpl)(nil)
var _ booking.SlotStore = (*AvailabilityRepoImpl)(nil)
var _ booking.OverrideStore = (*AvailabilityRepoImpl)(nil)
