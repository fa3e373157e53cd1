// Package browsing drives a seeker through a candidate batch one decision at a time.
package browsing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
	matchessvc "github.com/divcode-web/Trueconnect-bot/internal/services/matches"
	quotasvc "github.com/divcode-web/Trueconnect-bot/internal/services/quota"
)

const (
	defaultIdleTTL    = time.Hour
	defaultPromoEvery = 10
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNoSession        = errors.New("no browsing session")
	ErrSessionExhausted = errors.New("browsing session exhausted")
	ErrStaleCandidate   = errors.New("candidate is no longer current")
)

type State string

const (
	StateIdle       State = "idle"
	StateLoaded     State = "loaded"
	StatePresenting State = "presenting"
	StateExhausted  State = "exhausted"
)

type Finder interface {
	Find(ctx context.Context, seekerID int64, limit int) ([]model.Candidate, error)
}

type Ledger interface {
	Record(ctx context.Context, swiperID, swipedID int64, action enums.SwipeAction) (model.Swipe, error)
}

type MatchFormation interface {
	OnSwipeRecorded(ctx context.Context, swipe model.Swipe) (matchessvc.Formation, error)
}

type QuotaGate interface {
	Reserve(ctx context.Context, userID int64, action enums.SwipeAction) (quotasvc.Decision, error)
	Release(ctx context.Context, d quotasvc.Decision) error
}

// Store keeps one session per seeker. Update must apply fn atomically for that seeker;
// fn does no I/O and may be invoked more than once.
type Store interface {
	Get(ctx context.Context, seekerID int64) (model.BrowsingSession, bool, error)
	Put(ctx context.Context, sess model.BrowsingSession) error
	Delete(ctx context.Context, seekerID int64) error
	Update(ctx context.Context, seekerID int64, fn func(*model.BrowsingSession) bool) (model.BrowsingSession, bool, error)
	SweepIdle(ctx context.Context, cutoff time.Time) (int, error)
}

type Metrics interface {
	BatchLoaded(size int)
	SwipeRecorded(action enums.SwipeAction)
	MatchFormed(created bool)
	QuotaRejected()
}

type Config struct {
	BatchSize  int
	IdleTTL    time.Duration
	PromoEvery int
}

type Dependencies struct {
	Finder  Finder
	Ledger  Ledger
	Matches MatchFormation
	Quota   QuotaGate
	Store   Store
	Metrics Metrics
	Logger  *zap.Logger
}

type Service struct {
	finder  Finder
	ledger  Ledger
	matches MatchFormation
	quota   QuotaGate
	store   Store
	metrics Metrics
	logger  *zap.Logger
	cfg     Config
	now     func() time.Time
}

// Presentation is what the chat or HTTP layer renders for the seeker.
type Presentation struct {
	State        State
	CycleID      string
	Candidate    *model.Candidate
	Position     int
	Total        int
	Interstitial bool
}

type Outcome struct {
	Swipe          model.Swipe
	QuotaExceeded  bool
	Quota          quotasvc.Decision
	Matched        bool
	MatchCreated   bool
	Match          model.Match
	MatchedProfile *model.Profile
	Next           Presentation
}

// Recorded reports whether the decision reached the ledger.
func (o Outcome) Recorded() bool {
	return o.Swipe.SwiperID != 0
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.PromoEvery < 0 {
		cfg.PromoEvery = 0
	} else if cfg.PromoEvery == 0 {
		cfg.PromoEvery = defaultPromoEvery
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Service{
		finder:  deps.Finder,
		ledger:  deps.Ledger,
		matches: deps.Matches,
		quota:   deps.Quota,
		store:   deps.Store,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Start begins a new browsing cycle, dropping any previous one. Reload uses it too.
func (s *Service) Start(ctx context.Context, seekerID int64) (Presentation, error) {
	if seekerID <= 0 {
		return Presentation{}, ErrValidation
	}
	if err := s.ready(); err != nil {
		return Presentation{}, err
	}

	promoCounter := 0
	if prev, ok, err := s.store.Get(ctx, seekerID); err != nil {
		return Presentation{}, apperr.Storage("load browsing session", err)
	} else if ok {
		promoCounter = prev.PromoCounter
	}
	if err := s.store.Delete(ctx, seekerID); err != nil {
		return Presentation{}, apperr.Storage("drop browsing session", err)
	}

	candidates, err := s.finder.Find(ctx, seekerID, s.cfg.BatchSize)
	if err != nil {
		if errors.Is(err, apperr.ErrProfileIncomplete) {
			return Presentation{State: StateIdle}, err
		}
		return Presentation{}, err
	}
	s.metrics.BatchLoaded(len(candidates))

	sess := model.BrowsingSession{
		SeekerID:     seekerID,
		CycleID:      uuid.NewString(),
		Candidates:   candidates,
		PromoCounter: promoCounter,
		UpdatedAt:    s.now().UTC(),
	}
	interstitial := false
	if len(candidates) > 0 {
		interstitial = s.countPresented(&sess)
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return Presentation{}, apperr.Storage("save browsing session", err)
	}

	s.logger.Debug("browsing cycle started",
		zap.Int64("seeker_id", seekerID),
		zap.String("cycle_id", sess.CycleID),
		zap.Int("candidates", len(candidates)),
	)

	return present(sess, interstitial), nil
}

func (s *Service) Reload(ctx context.Context, seekerID int64) (Presentation, error) {
	return s.Start(ctx, seekerID)
}

// Current shows the candidate at the cursor. Without a session it starts one.
func (s *Service) Current(ctx context.Context, seekerID int64) (Presentation, error) {
	if seekerID <= 0 {
		return Presentation{}, ErrValidation
	}
	if err := s.ready(); err != nil {
		return Presentation{}, err
	}

	now := s.now().UTC()
	sess, ok, err := s.store.Update(ctx, seekerID, func(sess *model.BrowsingSession) bool {
		sess.UpdatedAt = now
		return true
	})
	if err != nil {
		return Presentation{}, apperr.Storage("touch browsing session", err)
	}
	if !ok {
		return s.Start(ctx, seekerID)
	}
	return present(sess, false), nil
}

// Decide records the seeker's decision on the current candidate and advances the cursor.
// A quota rejection is reported through Outcome.QuotaExceeded and leaves the session unchanged.
// When match formation fails after the swipe was recorded, the returned Outcome is still
// valid (Recorded is true) and err carries the storage failure.
func (s *Service) Decide(ctx context.Context, seekerID, targetID int64, action enums.SwipeAction) (Outcome, error) {
	if seekerID <= 0 || !action.Valid() {
		return Outcome{}, ErrValidation
	}
	if err := s.ready(); err != nil {
		return Outcome{}, err
	}

	sess, ok, err := s.store.Get(ctx, seekerID)
	if err != nil {
		return Outcome{}, apperr.Storage("load browsing session", err)
	}
	if !ok {
		return Outcome{}, ErrNoSession
	}
	candidate, ok := sess.Current()
	if !ok {
		return Outcome{}, ErrSessionExhausted
	}
	if targetID != 0 && targetID != candidate.Profile.UserID {
		return Outcome{}, ErrStaleCandidate
	}

	decision, err := s.quota.Reserve(ctx, seekerID, action)
	if err != nil {
		return Outcome{}, err
	}
	if !decision.Allowed {
		s.metrics.QuotaRejected()
		return Outcome{QuotaExceeded: true, Quota: decision, Next: present(sess, false)}, nil
	}

	swipe, err := s.ledger.Record(ctx, seekerID, candidate.Profile.UserID, action)
	if err != nil {
		if releaseErr := s.quota.Release(ctx, decision); releaseErr != nil {
			s.logger.Warn("release quota reservation failed", zap.Int64("seeker_id", seekerID), zap.Error(releaseErr))
		}
		return Outcome{}, err
	}
	s.metrics.SwipeRecorded(action)

	outcome := Outcome{Swipe: swipe, Quota: decision}
	var matchErr error
	if action.IsPositive() {
		formation, err := s.matches.OnSwipeRecorded(ctx, swipe)
		switch {
		case err != nil:
			matchErr = err
			s.logger.Error("match formation failed",
				zap.Int64("seeker_id", seekerID),
				zap.Int64("target_id", candidate.Profile.UserID),
				zap.Error(err),
			)
		case formation.Matched:
			outcome.Matched = true
			outcome.MatchCreated = formation.Created
			outcome.Match = formation.Match
			profile := candidate.Profile
			outcome.MatchedProfile = &profile
			s.metrics.MatchFormed(formation.Created)
		}
	}

	next, err := s.advance(ctx, sess)
	if err != nil {
		return outcome, err
	}
	outcome.Next = next
	return outcome, matchErr
}

// SweepIdle drops sessions untouched for longer than the idle TTL.
func (s *Service) SweepIdle(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	removed, err := s.store.SweepIdle(ctx, s.now().Add(-s.cfg.IdleTTL))
	if err != nil {
		return 0, apperr.Storage("sweep browsing sessions", err)
	}
	return removed, nil
}

// advance moves the cursor past the candidate that was current in sess. It is a no-op when
// another decision already moved it or the cycle was replaced.
func (s *Service) advance(ctx context.Context, sess model.BrowsingSession) (Presentation, error) {
	now := s.now().UTC()
	interstitial := false
	updated, applied, err := s.store.Update(ctx, sess.SeekerID, func(cur *model.BrowsingSession) bool {
		interstitial = false
		if cur.CycleID != sess.CycleID || cur.Cursor != sess.Cursor {
			return false
		}
		cur.Cursor++
		cur.UpdatedAt = now
		if !cur.Exhausted() {
			interstitial = s.countPresented(cur)
		}
		return true
	})
	if err != nil {
		return Presentation{}, apperr.Storage("advance browsing session", err)
	}
	if updated.SeekerID == 0 {
		return Presentation{State: StateIdle}, nil
	}
	return present(updated, applied && interstitial), nil
}

// countPresented bumps the promotion counter and reports whether an interstitial is due.
func (s *Service) countPresented(sess *model.BrowsingSession) bool {
	if s.cfg.PromoEvery <= 0 {
		return false
	}
	sess.PromoCounter++
	if sess.PromoCounter >= s.cfg.PromoEvery {
		sess.PromoCounter = 0
		return true
	}
	return false
}

func (s *Service) ready() error {
	if s.finder == nil || s.ledger == nil || s.matches == nil || s.quota == nil || s.store == nil {
		return fmt.Errorf("browsing dependencies are not configured")
	}
	return nil
}

func present(sess model.BrowsingSession, interstitial bool) Presentation {
	p := Presentation{
		State:   StateOf(sess),
		CycleID: sess.CycleID,
		Total:   len(sess.Candidates),
	}
	if candidate, ok := sess.Current(); ok {
		p.Candidate = &candidate
		p.Position = sess.Cursor + 1
		p.Interstitial = interstitial
	}
	return p
}

func StateOf(sess model.BrowsingSession) State {
	switch {
	case sess.SeekerID == 0:
		return StateIdle
	case sess.Exhausted():
		return StateExhausted
	case sess.Cursor == 0:
		return StateLoaded
	default:
		return StatePresenting
	}
}

type nopMetrics struct{}

func (nopMetrics) BatchLoaded(int)                 {}
func (nopMetrics) SwipeRecorded(enums.SwipeAction) {}
func (nopMetrics) MatchFormed(bool)                {}
func (nopMetrics) QuotaRejected()                  {}
