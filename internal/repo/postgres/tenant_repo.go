package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/booking"
	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TenantRepo interface {
	GetOwner(ctx context.Context, tenantID int64) (int64, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error)
}

type TenantRepoImpl struct{ pool *pgxpool.Pool }

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepoImpl { return &TenantRepoImpl{pool: pool} }

func (r *TenantRepoImpl) GetOwner(ctx context.Context, tenantID int64) (int64, error) {
	const q = `SELECT owner_member_id FROM tenants WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var ownerID int64
	err := r.pool.QueryRow(ctx, q, tenantID).Scan(&ownerID)
	return ownerID, err
}

func (r *TenantRepoImpl) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	const q = `SELECT id, name, subdomain, owner_member_id FROM tenants WHERE subdomain=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Tenant
	err := r.pool.QueryRow(ctx, q, subdomain).Scan(&t.ID, &t.Name, &t.Subdomain, &t.OwnerMemberID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &t, err
}

var _ TenantRepo = (*TenantRepoImpl)(nil)
var _ booking.TenantStore = (*TenantRepoImpl)(nil)
