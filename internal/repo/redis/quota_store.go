package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

const (
	quotaPrefix = "quota:likes:"
	quotaTTL    = 48 * time.Hour
)

// KEYS[1] counter, ARGV[1] limit, ARGV[2] ttl seconds. Returns {used, granted}.
var consumeScript = goredis.NewScript(`
local used = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
if used >= limit then
	return {used, 0}
end
used = redis.call("INCR", KEYS[1])
if used == 1 then
	redis.call("EXPIRE", KEYS[1], tonumber(ARGV[2]))
end
return {used, 1}
`)

var refundScript = goredis.NewScript(`
local used = tonumber(redis.call("GET", KEYS[1]) or "0")
if used <= 0 then
	return 0
end
return redis.call("DECR", KEYS[1])
`)

type QuotaStore struct {
	client *goredis.Client
}

func NewQuotaStore(client *goredis.Client) *QuotaStore {
	return &QuotaStore{client: client}
}

func (s *QuotaStore) ConsumeWithLimit(ctx context.Context, key model.QuotaKey, limit int) (int, bool, error) {
	if s.client == nil {
		return 0, false, fmt.Errorf("redis client is nil")
	}

	raw, err := consumeScript.Run(ctx, s.client, []string{quotaKey(key)}, limit, int(quotaTTL.Seconds())).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("consume like quota: %w", err)
	}
	if len(raw) != 2 {
		return 0, false, fmt.Errorf("consume like quota: unexpected reply %v", raw)
	}

	return int(raw[0]), raw[1] == 1, nil
}

func (s *QuotaStore) Refund(ctx context.Context, key model.QuotaKey) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := refundScript.Run(ctx, s.client, []string{quotaKey(key)}).Err(); err != nil {
		return fmt.Errorf("refund like quota: %w", err)
	}
	return nil
}

func (s *QuotaStore) Used(ctx context.Context, key model.QuotaKey) (int, error) {
	if s.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	used, err := s.client.Get(ctx, quotaKey(key)).Int()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get like quota: %w", err)
	}
	return used, nil
}

// SweepExcept deletes counters of every day but currentDay. Keys also carry a TTL,
// so this only trims what has not expired yet.
func (s *QuotaStore) SweepExcept(ctx context.Context, currentDay string) (int, error) {
	if s.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	stale := make([]string, 0)
	err := scanKeys(ctx, s.client, quotaPrefix+"*", func(key string) error {
		if !strings.HasSuffix(key, ":"+currentDay) {
			stale = append(stale, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	removed, err := s.client.Del(ctx, stale...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete stale quota keys: %w", err)
	}
	return int(removed), nil
}

func quotaKey(key model.QuotaKey) string {
	return quotaPrefix + strconv.FormatInt(key.UserID, 10) + ":" + key.Day
}
