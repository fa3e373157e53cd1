package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

const defaultMatchesLimit = 100

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

const createMatchAttempts = 2

// CreateOrGetActive relies on the partial unique index matches_active_pair_uidx.
// A losing concurrent insert falls through to reading the winner's row.
func (r *MatchRepo) CreateOrGetActive(ctx context.Context, userLowID, userHighID int64, at time.Time) (model.Match, bool, error) {
	if r.pool == nil {
		return model.Match{}, false, fmt.Errorf("postgres pool is nil")
	}
	if userLowID <= 0 || userHighID <= 0 || userLowID >= userHighID {
		return model.Match{}, false, fmt.Errorf("invalid match pair")
	}
	return createOrGetActive(ctx, r.pool, userLowID, userHighID, at)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// createOrGetActive runs outside a transaction, so each statement is its own READ COMMITTED snapshot.
// The re-read after a conflict therefore sees the committed winner. If that winner was deactivated
// in between, the re-read finds nothing and the insert is tried once more.
func createOrGetActive(ctx context.Context, db rowQuerier, userLowID, userHighID int64, at time.Time) (model.Match, bool, error) {
	for attempt := 1; ; attempt++ {
		match, err := scanMatch(db.QueryRow(ctx, `
INSERT INTO matches (user_low_id, user_high_id, formed_at, active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (user_low_id, user_high_id) WHERE active DO NOTHING
RETURNING id, user_low_id, user_high_id, formed_at, active
`, userLowID, userHighID, at.UTC()))
		if err == nil {
			return match, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, false, fmt.Errorf("insert match: %w", err)
		}

		match, err = scanMatch(db.QueryRow(ctx, `
SELECT id, user_low_id, user_high_id, formed_at, active
FROM matches
WHERE user_low_id = $1
  AND user_high_id = $2
  AND active
`, userLowID, userHighID))
		if err == nil {
			return match, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) || attempt >= createMatchAttempts {
			return model.Match{}, false, fmt.Errorf("load active match: %w", err)
		}
	}
}

func (r *MatchRepo) ListActiveForUser(ctx context.Context, userID int64, limit int) ([]model.Match, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = defaultMatchesLimit
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_low_id, user_high_id, formed_at, active
FROM matches
WHERE active
  AND (user_low_id = $1 OR user_high_id = $1)
ORDER BY formed_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query active matches: %w", err)
	}
	defer rows.Close()

	items := make([]model.Match, 0, limit)
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan active match: %w", err)
		}
		items = append(items, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active matches: %w", err)
	}

	return items, nil
}

func (r *MatchRepo) Deactivate(ctx context.Context, userLowID, userHighID int64, at time.Time) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	return deactivateMatch(ctx, r.pool, userLowID, userHighID, at)
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func deactivateMatch(ctx context.Context, db execer, userLowID, userHighID int64, at time.Time) (bool, error) {
	tag, err := db.Exec(ctx, `
UPDATE matches
SET active = FALSE,
	deactivated_at = $3
WHERE user_low_id = $1
  AND user_high_id = $2
  AND active
`, userLowID, userHighID, at.UTC())
	if err != nil {
		return false, fmt.Errorf("deactivate match: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanMatch(row pgx.Row) (model.Match, error) {
	var match model.Match
	if err := row.Scan(&match.ID, &match.UserLowID, &match.UserHighID, &match.FormedAt, &match.Active); err != nil {
		return model.Match{}, err
	}
	match.FormedAt = match.FormedAt.UTC()
	return match, nil
}
