package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

func (r *SwipeRepo) Create(ctx context.Context, swiperID, swipedID int64, action enums.SwipeAction, at time.Time) (model.Swipe, error) {
	if r.pool == nil {
		return model.Swipe{}, fmt.Errorf("postgres pool is nil")
	}
	if swiperID <= 0 || swipedID <= 0 || !action.Valid() {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var (
		swipe     model.Swipe
		rawAction string
	)
	err := r.pool.QueryRow(ctx, `
INSERT INTO swipes (swiper_id, swiped_id, action, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, swiper_id, swiped_id, action, created_at
`, swiperID, swipedID, string(action), at.UTC()).Scan(
		&swipe.ID,
		&swipe.SwiperID,
		&swipe.SwipedID,
		&rawAction,
		&swipe.CreatedAt,
	)
	if err != nil {
		return model.Swipe{}, fmt.Errorf("insert swipe: %w", err)
	}
	swipe.Action = enums.SwipeAction(rawAction)
	swipe.CreatedAt = swipe.CreatedAt.UTC()

	return swipe, nil
}

func (r *SwipeRepo) Exists(ctx context.Context, swiperID, swipedID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM swipes
	WHERE swiper_id = $1
	  AND swiped_id = $2
)
`, swiperID, swipedID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check swipe: %w", err)
	}
	return exists, nil
}

func (r *SwipeRepo) ExistsPositive(ctx context.Context, swiperID, swipedID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM swipes
	WHERE swiper_id = $1
	  AND swiped_id = $2
	  AND action IN ($3, $4)
)
`, swiperID, swipedID, string(enums.SwipeActionLike), string(enums.SwipeActionSuperLike)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check positive swipe: %w", err)
	}
	return exists, nil
}

func (r *SwipeRepo) ListPositiveSwipers(ctx context.Context, targetID int64, limit int) ([]int64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT swiper_id
FROM swipes
WHERE swiped_id = $1
  AND action IN ($2, $3)
GROUP BY swiper_id
ORDER BY MAX(created_at) DESC, swiper_id DESC
LIMIT $4
`, targetID, string(enums.SwipeActionLike), string(enums.SwipeActionSuperLike), limit)
	if err != nil {
		return nil, fmt.Errorf("query positive swipers: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

func (r *SwipeRepo) ListSwipedTargets(ctx context.Context, swiperID int64) ([]int64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT DISTINCT swiped_id
FROM swipes
WHERE swiper_id = $1
`, swiperID)
	if err != nil {
		return nil, fmt.Errorf("query swiped targets: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}
