package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

const (
	browsePrefix      = "browse:session:"
	maxUpdateAttempts = 16
)

var ErrUpdateContention = errors.New("browsing session update contention")

// SessionStore keeps browsing sessions as JSON values that expire after the idle TTL.
type SessionStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionStore(client *goredis.Client, idleTTL time.Duration) *SessionStore {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &SessionStore{client: client, ttl: idleTTL}
}

func (s *SessionStore) Get(ctx context.Context, seekerID int64) (model.BrowsingSession, bool, error) {
	if s.client == nil {
		return model.BrowsingSession{}, false, fmt.Errorf("redis client is nil")
	}
	return readSession(ctx, s.client, sessionKey(seekerID))
}

func (s *SessionStore) Put(ctx context.Context, sess model.BrowsingSession) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal browsing session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.SeekerID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("put browsing session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, seekerID int64) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := s.client.Del(ctx, sessionKey(seekerID)).Err(); err != nil {
		return fmt.Errorf("delete browsing session: %w", err)
	}
	return nil
}

// Update runs fn inside WATCH/MULTI. fn may be invoked again when another writer wins the race.
func (s *SessionStore) Update(ctx context.Context, seekerID int64, fn func(*model.BrowsingSession) bool) (model.BrowsingSession, bool, error) {
	if s.client == nil {
		return model.BrowsingSession{}, false, fmt.Errorf("redis client is nil")
	}

	key := sessionKey(seekerID)
	var (
		result  model.BrowsingSession
		applied bool
	)
	txf := func(tx *goredis.Tx) error {
		current, ok, err := readSession(ctx, tx, key)
		if err != nil {
			return err
		}
		if !ok {
			result, applied = model.BrowsingSession{}, false
			return nil
		}

		next := current
		if !fn(&next) {
			result, applied = current, false
			return nil
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal browsing session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result, applied = next, true
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, applied, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return model.BrowsingSession{}, false, fmt.Errorf("update browsing session: %w", err)
	}

	return model.BrowsingSession{}, false, ErrUpdateContention
}

// SweepIdle removes sessions untouched since cutoff. Expiry usually gets there first.
func (s *SessionStore) SweepIdle(ctx context.Context, cutoff time.Time) (int, error) {
	if s.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	removed := 0
	err := scanKeys(ctx, s.client, browsePrefix+"*", func(key string) error {
		txf := func(tx *goredis.Tx) error {
			sess, ok, err := readSession(ctx, tx, key)
			if err != nil || !ok || !sess.UpdatedAt.Before(cutoff) {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err == nil {
				removed++
			}
			return err
		}

		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			// Touched while sweeping, so it is not idle.
			return nil
		}
		return err
	})
	if err != nil {
		return removed, fmt.Errorf("sweep browsing sessions: %w", err)
	}

	return removed, nil
}

type sessionGetter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func readSession(ctx context.Context, client sessionGetter, key string) (model.BrowsingSession, bool, error) {
	payload, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return model.BrowsingSession{}, false, nil
		}
		return model.BrowsingSession{}, false, fmt.Errorf("get browsing session: %w", err)
	}

	var sess model.BrowsingSession
	if err := json.Unmarshal(payload, &sess); err != nil {
		return model.BrowsingSession{}, false, fmt.Errorf("decode browsing session: %w", err)
	}
	return sess, true, nil
}

func sessionKey(seekerID int64) string {
	return browsePrefix + strconv.FormatInt(seekerID, 10)
}
