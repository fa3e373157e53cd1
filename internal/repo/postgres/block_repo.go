package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

type BlockRepo struct {
	pool *pgxpool.Pool
}

func NewBlockRepo(pool *pgxpool.Pool) *BlockRepo {
	return &BlockRepo{pool: pool}
}

// BlockedAmong returns the ids that share a block with userID in either direction.
func (r *BlockRepo) BlockedAmong(ctx context.Context, userID int64, candidateIDs []int64) (map[int64]struct{}, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	out := make(map[int64]struct{})
	if len(candidateIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT target_user_id
FROM user_blocks
WHERE actor_user_id = $1 AND target_user_id = ANY($2)
UNION
SELECT actor_user_id
FROM user_blocks
WHERE target_user_id = $1 AND actor_user_id = ANY($2)
`, userID, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return out, nil
}

// BlockAndDeactivate records the block and ends any active match for the pair in one transaction.
func (r *BlockRepo) BlockAndDeactivate(ctx context.Context, actorUserID, targetUserID int64, at time.Time) error {
	if actorUserID <= 0 || targetUserID <= 0 || actorUserID == targetUserID {
		return fmt.Errorf("invalid block payload")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO user_blocks (actor_user_id, target_user_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (actor_user_id, target_user_id) DO NOTHING
`, actorUserID, targetUserID, at.UTC()); err != nil {
			return fmt.Errorf("insert block: %w", err)
		}

		low, high := model.CanonicalPair(actorUserID, targetUserID)
		if _, err := deactivateMatch(ctx, tx, low, high, at); err != nil {
			return err
		}
		return nil
	})
}
