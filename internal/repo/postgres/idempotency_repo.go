package postgres

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/booking"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyRepo maps client-supplied Idempotency-Key headers to created
// appointments so retried public submissions do not double-book.
type IdempotencyRepo interface {
	// CheckOrCreate returns the appointment ID already recorded for the key,
	// or 0 if none. When appointmentID > 0 the mapping is recorded.
	CheckOrCreate(ctx context.Context, key string, appointmentID int64) (int64, error)
	// CleanupExpired removes expired idempotency records.
	CleanupExpired(ctx context.Context) (int64, error)
}

type IdempotencyRepoImpl struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewIdempotencyRepo(pool *pgxpool.Pool, ttl time.Duration) *IdempotencyRepoImpl {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyRepoImpl{pool: pool, ttl: ttl}
}

func (r *IdempotencyRepoImpl) CheckOrCreate(ctx context.Context, key string, appointmentID int64) (int64, error) {
	// Keys are hashed for privacy and consistent length.
	hasher := sha256.New()
	hasher.Write([]byte(key))
	keyHash := fmt.Sprintf("%x", hasher.Sum(nil))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var existingID int64
	err := r.pool.QueryRow(ctx,
		`SELECT appointment_id FROM booking_idempotency WHERE key_hash = $1 AND expires_at > now()`,
		keyHash).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	if appointmentID > 0 {
		_, err = r.pool.Exec(ctx, `
			INSERT INTO booking_idempotency (key_hash, appointment_id, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key_hash) DO NOTHING`,
			keyHash, appointmentID, time.Now().Add(r.ttl))
		if err != nil {
			return 0, err
		}
	}

	return 0, nil
}

func (r *IdempotencyRepoImpl) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM booking_idempotency WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

var _ IdempotencyRepo = (*IdempotencyRepoImpl)(nil)
var _ booking.IdempotencyStore = (*IdempotencyRepoImpl)(nil)
