package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 {
		return model.User{}, fmt.Errorf("invalid telegram_id")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, telegram_id, username, created_at
FROM users
WHERE telegram_id = $1
`, telegramID).Scan(&user.ID, &user.TelegramID, &user.Username, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by telegram_id: %w", err)
	}

	return user, nil
}

// EnsureUser returns the user for telegramID, creating it on first contact.
func (r *UserRepo) EnsureUser(ctx context.Context, telegramID int64, username string) (model.User, error) {
	if telegramID <= 0 {
		return model.User{}, fmt.Errorf("invalid telegram_id")
	}
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (telegram_id, username, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (telegram_id) DO UPDATE SET
	username = CASE WHEN EXCLUDED.username = '' THEN users.username ELSE EXCLUDED.username END
RETURNING id, telegram_id, username, created_at
`, telegramID, strings.TrimSpace(username)).Scan(&user.ID, &user.TelegramID, &user.Username, &user.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("ensure user by telegram_id: %w", err)
	}

	return user, nil
}
