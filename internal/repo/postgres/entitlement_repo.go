package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EntitlementRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewEntitlementRepo(pool *pgxpool.Pool) *EntitlementRepo {
	return &EntitlementRepo{pool: pool, now: time.Now}
}

// IsPremium is true while plus_expires_at is in the future. A missing row means free tier.
func (r *EntitlementRepo) IsPremium(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return false, nil
	}

	var plusUntil *time.Time
	err := r.pool.QueryRow(ctx, `
SELECT plus_expires_at
FROM entitlements
WHERE user_id = $1
LIMIT 1
`, userID).Scan(&plusUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get entitlement plus status: %w", err)
	}

	return plusUntil != nil && plusUntil.After(r.now().UTC()), nil
}
