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

type BookingPageRepo interface {
	GetBySlug(ctx context.Context, tenantID *int64, slug string) (*domain.BookingPage, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.BookingPage, error)
	Create(ctx context.Context, tenantID int64, in *domain.BookingPageCreateReq) (*domain.BookingPage, error)
	Update(ctx context.Context, tenantID, id int64, patch domain.BookingPagePatch) (*domain.BookingPage, error)
	Deactivate(ctx context.Context, tenantID, id int64) (bool, error)
	List(ctx context.Context, tenantID int64, limit, offset int) ([]domain.BookingPage, error)
}

type BookingPageRepoImpl struct{ pool *pgxpool.Pool }

func NewBookingPageRepo(pool *pgxpool.Pool) *BookingPageRepoImpl {
	return &BookingPageRepoImpl{pool: pool}
}

const pageCols = `id, tenant_id, slug, title, assigned_member_id,
min_notice_hours, max_advance_days, buffer_before_minutes, buffer_after_minutes,
is_active, created_at, updated_at`

func scanPage(row pgx.Row) (*domain.BookingPage, error) {
	var p domain.BookingPage
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Slug, &p.Title, &p.AssignedMemberID,
		&p.MinNoticeHours, &p.MaxAdvanceDays, &p.BufferBeforeMinutes, &p.BufferAfterMinutes,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const (
	pageBySlugTenant = `SELECT ` + pageCols + ` FROM booking_pages WHERE tenant_id=$1 AND slug=$2`
	// Platform-wide resolution must skip inactive rows: only active slugs are
	// unique across tenants, so an inactive duplicate in another tenant would
	// otherwise shadow the active page.
	pageBySlugAny = `SELECT ` + pageCols + ` FROM booking_pages WHERE slug=$1 AND is_active`
)

// GetBySlug narrows by tenant when the request came through a tenant
// subdomain; without a tenant context the slug must be unique platform-wide.
func (r *BookingPageRepoImpl) GetBySlug(ctx context.Context, tenantID *int64, slug string) (*domain.BookingPage, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		p   *domain.BookingPage
		err error
	)
	if tenantID != nil {
		p, err = scanPage(r.pool.QueryRow(ctx, pageBySlugTenant, *tenantID, slug))
	} else {
		p, err = scanPage(r.pool.QueryRow(ctx, pageBySlugAny, slug))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *BookingPageRepoImpl) GetByID(ctx context.Context, tenantID, id int64) (*domain.BookingPage, error) {
	const q = `SELECT ` + pageCols + ` FROM booking_pages WHERE tenant_id=$1 AND id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanPage(r.pool.QueryRow(ctx, q, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *BookingPageRepoImpl) Create(ctx context.Context, tenantID int64, in *domain.BookingPageCreateReq) (*domain.BookingPage, error) {
	const q = `INSERT INTO booking_pages (
    tenant_id, slug, title, assigned_member_id,
    min_notice_hours, max_advance_days, buffer_before_minutes, buffer_after_minutes,
    is_active
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,true)
  RETURNING ` + pageCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanPage(r.pool.QueryRow(ctx, q,
		tenantID, in.Slug, in.Title, in.AssignedMemberID,
		in.MinNoticeHours, in.MaxAdvanceDays, in.BufferBeforeMinutes, in.BufferAfterMinutes,
	))
}

func (r *BookingPageRepoImpl) Update(ctx context.Context, tenantID, id int64, patch domain.BookingPagePatch) (*domain.BookingPage, error) {
	q := `UPDATE booking_pages SET updated_at=now()`
	args := []any{tenantID, id}

	set := func(col string, v any) {
		args = append(args, v)
		q += fmt.Sprintf(", %s=$%d", col, len(args))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.AssignedMemberID != nil {
		set("assigned_member_id", *patch.AssignedMemberID)
	}
	if patch.MinNoticeHours != nil {
		set("min_notice_hours", *patch.MinNoticeHours)
	}
	if patch.MaxAdvanceDays != nil {
		set("max_advance_days", *patch.MaxAdvanceDays)
	}
	if patch.BufferBeforeMinutes != nil {
		set("buffer_before_minutes", *patch.BufferBeforeMinutes)
	}
	if patch.BufferAfterMinutes != nil {
		set("buffer_after_minutes", *patch.BufferAfterMinutes)
	}
	if patch.IsActive != nil {
		set("is_active", *patch.IsActive)
	}

	q += ` WHERE tenant_id=$1 AND id=$2 RETURNING ` + pageCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanPage(r.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *BookingPageRepoImpl) Deactivate(ctx context.Context, tenantID, id int64) (bool, error) {
	const q = `UPDATE booking_pages SET is_active=false, updated_at=now()
  WHERE tenant_id=$1 AND id=$2 AND is_active`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, tenantID, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *BookingPageRepoImpl) List(ctx context.Context, tenantID int64, limit, offset int) ([]domain.BookingPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + pageCols + ` FROM booking_pages
  WHERE tenant_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ps := make([]domain.BookingPage, 0, limit)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, *p)
	}
	return ps, rows.Err()
}

var _ BookingPageRepo = (*BookingPageRepoImpl)(nil)
var _ booking.PageStore = (*BookingPageRepoImpl)(nil)
