package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/divcode-web/Trueconnect-bot/internal/services/auth"
)

const (
	authSessionPrefix        = "auth:session:"
	authRefreshPrefix        = "auth:refresh:"
	authSessionRefreshPrefix = "auth:session_refresh:"
	authUserSessionsPrefix   = "auth:user_sessions:"
)

// AuthSessionRepo keeps login sessions and their refresh tokens. Keys expire with the session.
type AuthSessionRepo struct {
	client *goredis.Client
}

func NewAuthSessionRepo(client *goredis.Client) *AuthSessionRepo {
	return &AuthSessionRepo{client: client}
}

func (r *AuthSessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.UserID <= 0 {
		return authsvc.ErrInvalidInput
	}

	ttl := ttlFor(session.ExpiresAt)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, authSessionKey(session.SID), sessionFields(session))
	pipe.Expire(ctx, authSessionKey(session.SID), ttl)
	pipe.HSet(ctx, authRefreshKey(refreshToken), refreshFields(session))
	pipe.Expire(ctx, authRefreshKey(refreshToken), ttl)
	pipe.Set(ctx, authSessionRefreshKey(session.SID), refreshToken, ttl)
	pipe.SAdd(ctx, authUserSessionsKey(session.UserID), session.SID)
	pipe.Expire(ctx, authUserSessionsKey(session.UserID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create auth session: %w", err)
	}
	return nil
}

func (r *AuthSessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	values, err := r.client.HGetAll(ctx, authSessionKey(sid)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get auth session: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}

	session, err := parseSessionRecord(values)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}
	session.SID = sid
	return session, nil
}

func (r *AuthSessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	values, err := r.client.HGetAll(ctx, authRefreshKey(refreshToken)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get refresh token: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}

	session, err := parseSessionRecord(values)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}
	session.SID = strings.TrimSpace(values["sid"])
	if session.SID == "" {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	return session, nil
}

// RotateRefresh swaps the refresh token under WATCH so two concurrent refreshes
// with the same old token cannot both succeed.
func (r *AuthSessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	oldKey := authRefreshKey(oldRefreshToken)
	txf := func(tx *goredis.Tx) error {
		values, err := tx.HGetAll(ctx, oldKey).Result()
		if err != nil {
			return fmt.Errorf("get refresh token: %w", err)
		}
		if len(values) == 0 || values["sid"] != sid {
			return authsvc.ErrRefreshNotFound
		}
		session, err := parseSessionRecord(values)
		if err != nil {
			return err
		}
		session.SID = sid
		session.ExpiresAt = expiresAt

		ttl := ttlFor(expiresAt)
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, oldKey)
			pipe.HSet(ctx, authRefreshKey(newRefreshToken), refreshFields(session))
			pipe.Expire(ctx, authRefreshKey(newRefreshToken), ttl)
			pipe.HSet(ctx, authSessionKey(sid), sessionFields(session))
			pipe.Expire(ctx, authSessionKey(sid), ttl)
			pipe.Set(ctx, authSessionRefreshKey(sid), newRefreshToken, ttl)
			pipe.SAdd(ctx, authUserSessionsKey(session.UserID), sid)
			pipe.Expire(ctx, authUserSessionsKey(session.UserID), ttl)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, oldKey)
	if errors.Is(err, goredis.TxFailedErr) {
		return authsvc.ErrRefreshNotFound
	}
	if err != nil && !errors.Is(err, authsvc.ErrRefreshNotFound) {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return err
}

func (r *AuthSessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}

	values, err := r.client.HGetAll(ctx, authSessionKey(sid)).Result()
	if err != nil {
		return fmt.Errorf("load auth session for delete: %w", err)
	}
	refreshToken, err := r.client.Get(ctx, authSessionRefreshKey(sid)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("load session refresh pointer: %w", err)
	}

	userID, _ := strconv.ParseInt(values["user_id"], 10, 64)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, authSessionKey(sid))
	pipe.Del(ctx, authSessionRefreshKey(sid))
	if refreshToken != "" {
		pipe.Del(ctx, authRefreshKey(refreshToken))
	}
	if userID > 0 {
		pipe.SRem(ctx, authUserSessionsKey(userID), sid)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete auth session: %w", err)
	}
	return nil
}

func (r *AuthSessionRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return authsvc.ErrInvalidInput
	}

	sids, err := r.client.SMembers(ctx, authUserSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}
	for _, sid := range sids {
		if err := r.DeleteSession(ctx, sid); err != nil {
			return err
		}
	}

	if err := r.client.Del(ctx, authUserSessionsKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete user sessions key: %w", err)
	}
	return nil
}

func sessionFields(session authsvc.SessionRecord) map[string]interface{} {
	return map[string]interface{}{
		"user_id":     session.UserID,
		"telegram_id": session.TelegramID,
		"expires_at":  session.ExpiresAt.Unix(),
	}
}

func refreshFields(session authsvc.SessionRecord) map[string]interface{} {
	fields := sessionFields(session)
	fields["sid"] = session.SID
	return fields
}

func parseSessionRecord(values map[string]string) (authsvc.SessionRecord, error) {
	userID, err := strconv.ParseInt(values["user_id"], 10, 64)
	if err != nil || userID <= 0 {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}
	expiresUnix, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}
	telegramID, _ := strconv.ParseInt(values["telegram_id"], 10, 64)

	return authsvc.SessionRecord{
		UserID:     userID,
		TelegramID: telegramID,
		ExpiresAt:  time.Unix(expiresUnix, 0).UTC(),
	}, nil
}

func ttlFor(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func authSessionKey(sid string) string {
	return authSessionPrefix + sid
}

func authRefreshKey(token string) string {
	return authRefreshPrefix + token
}

func authSessionRefreshKey(sid string) string {
	return authSessionRefreshPrefix + sid
}

func authUserSessionsKey(userID int64) string {
	return authUserSessionsPrefix + strconv.FormatInt(userID, 10)
}
