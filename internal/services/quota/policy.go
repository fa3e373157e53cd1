// Package quota gates positive swipes from non-premium users by a daily cap.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/rules"
)

var ErrValidation = errors.New("validation error")

// Store keeps per-(user, day) counters. ConsumeWithLimit must be atomic per key.
type Store interface {
	ConsumeWithLimit(ctx context.Context, key model.QuotaKey, limit int) (used int, ok bool, err error)
	Refund(ctx context.Context, key model.QuotaKey) error
	Used(ctx context.Context, key model.QuotaKey) (int, error)
	SweepExcept(ctx context.Context, currentDay string) (int, error)
}

type PremiumStatus interface {
	IsPremium(ctx context.Context, userID int64) (bool, error)
}

type Config struct {
	FreeLikesPerDay int
	Timezone        string
}

type Policy struct {
	store   Store
	premium PremiumStatus
	limit   int
	loc     *time.Location
	now     func() time.Time
}

// Decision is the outcome of one Reserve call. A Decision with Counted set must be
// released if the swipe it was reserved for is not recorded.
type Decision struct {
	Allowed   bool
	Premium   bool
	Counted   bool
	Used      int
	Limit     int
	Remaining int
	ResetAt   time.Time

	key model.QuotaKey
}

func (d Decision) Exceeded() bool {
	return !d.Allowed
}

type Snapshot struct {
	Premium   bool
	Used      int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func NewPolicy(store Store, premium PremiumStatus, cfg Config) *Policy {
	if cfg.FreeLikesPerDay <= 0 {
		cfg.FreeLikesPerDay = rules.FreeLikesPerDay
	}

	return &Policy{
		store:   store,
		premium: premium,
		limit:   cfg.FreeLikesPerDay,
		loc:     resolveTimezone(cfg.Timezone),
		now:     time.Now,
	}
}

// Reserve admits or rejects one action. Passes and premium users are always admitted and not counted.
func (p *Policy) Reserve(ctx context.Context, userID int64, action enums.SwipeAction) (Decision, error) {
	if userID <= 0 {
		return Decision{}, ErrValidation
	}
	now := p.now()
	resetAt := rules.NextResetAt(now, p.loc)

	if !action.IsPositive() {
		return Decision{Allowed: true, Limit: p.limit, ResetAt: resetAt}, nil
	}
	if p.store == nil || p.premium == nil {
		return Decision{}, fmt.Errorf("quota dependencies are not configured")
	}

	premium, err := p.premium.IsPremium(ctx, userID)
	if err != nil {
		return Decision{}, apperr.Storage("check premium status", err)
	}
	if rules.UnlimitedLikesForPremium(premium) {
		return Decision{Allowed: true, Premium: true, ResetAt: resetAt}, nil
	}

	key := model.QuotaKey{UserID: userID, Day: rules.DayKey(now, p.loc)}
	used, ok, err := p.store.ConsumeWithLimit(ctx, key, p.limit)
	if err != nil {
		return Decision{}, apperr.Storage("consume daily quota", err)
	}

	return Decision{
		Allowed:   ok,
		Counted:   ok,
		Used:      used,
		Limit:     p.limit,
		Remaining: remaining(p.limit, used),
		ResetAt:   resetAt,
		key:       key,
	}, nil
}

// Release gives back a counted reservation.
func (p *Policy) Release(ctx context.Context, d Decision) error {
	if !d.Counted || p.store == nil {
		return nil
	}
	if err := p.store.Refund(ctx, d.key); err != nil {
		return apperr.Storage("refund daily quota", err)
	}
	return nil
}

func (p *Policy) Snapshot(ctx context.Context, userID int64) (Snapshot, error) {
	if userID <= 0 {
		return Snapshot{}, ErrValidation
	}
	if p.store == nil || p.premium == nil {
		return Snapshot{}, fmt.Errorf("quota dependencies are not configured")
	}
	now := p.now()

	premium, err := p.premium.IsPremium(ctx, userID)
	if err != nil {
		return Snapshot{}, apperr.Storage("check premium status", err)
	}
	snapshot := Snapshot{Premium: premium, Limit: p.limit, ResetAt: rules.NextResetAt(now, p.loc)}
	if premium {
		snapshot.Limit = 0
		return snapshot, nil
	}

	used, err := p.store.Used(ctx, model.QuotaKey{UserID: userID, Day: rules.DayKey(now, p.loc)})
	if err != nil {
		return Snapshot{}, apperr.Storage("read daily quota", err)
	}
	snapshot.Used = used
	snapshot.Remaining = remaining(p.limit, used)
	return snapshot, nil
}

// Sweep drops counters of every day other than today.
func (p *Policy) Sweep(ctx context.Context) (int, error) {
	if p.store == nil {
		return 0, nil
	}
	removed, err := p.store.SweepExcept(ctx, rules.DayKey(p.now(), p.loc))
	if err != nil {
		return 0, apperr.Storage("sweep daily quota", err)
	}
	return removed, nil
}

func remaining(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}

func resolveTimezone(raw string) *time.Location {
	name := strings.TrimSpace(raw)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
