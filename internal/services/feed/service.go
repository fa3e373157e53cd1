// Package feed builds the ranked candidate batch a seeker browses through.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/rules"
)

const (
	defaultBatchSize     = 20
	defaultPoolSize      = 200
	defaultMinAge        = 18
	defaultMaxAge        = 99
	defaultMaxDistanceKM = 50
	defaultMaxCapKM      = 500
)

var ErrValidation = errors.New("validation error")

type ProfileSource interface {
	GetProfile(ctx context.Context, userID int64) (model.Profile, error)
	FindCandidates(ctx context.Context, filter model.CandidateFilter) ([]model.Profile, error)
}

type BlockList interface {
	// BlockedAmong returns the ids from candidateIDs that share a block with userID in either direction.
	BlockedAmong(ctx context.Context, userID int64, candidateIDs []int64) (map[int64]struct{}, error)
}

type SwipeHistory interface {
	SwipedTargets(ctx context.Context, swiperID int64) ([]int64, error)
}

type Scorer interface {
	Score(a, b model.Profile) int
}

type Config struct {
	BatchSize            int
	PoolSize             int
	DefaultMinAge        int
	DefaultMaxAge        int
	DefaultMaxDistanceKM int
	MaxDistanceKM        int
}

type Dependencies struct {
	Profiles ProfileSource
	Blocks   BlockList
	Swipes   SwipeHistory
	Scorer   Scorer
}

type Service struct {
	profiles ProfileSource
	blocks   BlockList
	swipes   SwipeHistory
	scorer   Scorer
	cfg      Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	if cfg.DefaultMinAge <= 0 {
		cfg.DefaultMinAge = defaultMinAge
	}
	if cfg.DefaultMaxAge <= 0 {
		cfg.DefaultMaxAge = defaultMaxAge
	}
	if cfg.DefaultMaxDistanceKM <= 0 {
		cfg.DefaultMaxDistanceKM = defaultMaxDistanceKM
	}
	if cfg.MaxDistanceKM <= 0 {
		cfg.MaxDistanceKM = defaultMaxCapKM
	}

	return &Service{
		profiles: deps.Profiles,
		blocks:   deps.Blocks,
		swipes:   deps.Swipes,
		scorer:   deps.Scorer,
		cfg:      cfg,
	}
}

// Find returns up to limit unseen candidates for the seeker, best first.
// A seeker without a completed profile or coordinates gets an empty batch and apperr.ErrProfileIncomplete.
func (s *Service) Find(ctx context.Context, seekerID int64, limit int) ([]model.Candidate, error) {
	if seekerID <= 0 {
		return nil, ErrValidation
	}
	if s.profiles == nil || s.swipes == nil || s.scorer == nil {
		return nil, fmt.Errorf("feed dependencies are not configured")
	}
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}

	seeker, err := s.profiles.GetProfile(ctx, seekerID)
	if err != nil {
		if errors.Is(err, apperr.ErrProfileNotFound) {
			return []model.Candidate{}, apperr.ErrProfileIncomplete
		}
		return nil, apperr.Storage("load seeker profile", err)
	}
	if !seeker.ProfileCompleted || !seeker.HasLocation() {
		return []model.Candidate{}, apperr.ErrProfileIncomplete
	}

	swiped, err := s.swipes.SwipedTargets(ctx, seekerID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(swiped))
	for _, id := range swiped {
		seen[id] = struct{}{}
	}

	filter := s.buildFilter(seeker, swiped)
	pool, err := s.profiles.FindCandidates(ctx, filter)
	if err != nil {
		return nil, apperr.Storage("find candidates", err)
	}

	ranked := make([]model.Candidate, 0, len(pool))
	for _, profile := range pool {
		if _, ok := seen[profile.UserID]; ok {
			continue
		}
		distance, ok := acceptCandidate(filter, profile)
		if !ok {
			continue
		}
		ranked = append(ranked, model.Candidate{
			Profile:    profile,
			DistanceKM: distance,
			Score:      s.scorer.Score(seeker, profile),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].DistanceKM != ranked[j].DistanceKM {
			return ranked[i].DistanceKM < ranked[j].DistanceKM
		}
		return ranked[i].Profile.UserID < ranked[j].Profile.UserID
	})

	var blocked map[int64]struct{}
	if s.blocks != nil && len(ranked) > 0 {
		ids := make([]int64, 0, len(ranked))
		for _, candidate := range ranked {
			ids = append(ids, candidate.Profile.UserID)
		}
		blocked, err = s.blocks.BlockedAmong(ctx, seekerID, ids)
		if err != nil {
			return nil, apperr.Storage("check blocks", err)
		}
	}

	out := make([]model.Candidate, 0, min(limit, len(ranked)))
	for _, candidate := range ranked {
		if len(out) >= limit {
			break
		}
		if _, ok := blocked[candidate.Profile.UserID]; ok {
			continue
		}
		out = append(out, candidate)
	}

	return out, nil
}

func (s *Service) buildFilter(seeker model.Profile, exclude []int64) model.CandidateFilter {
	prefs := seeker.Preferences

	minAge := prefs.MinAge
	if minAge <= 0 {
		minAge = s.cfg.DefaultMinAge
	}
	maxAge := prefs.MaxAge
	if maxAge <= 0 {
		maxAge = s.cfg.DefaultMaxAge
	}
	if maxAge < minAge {
		minAge, maxAge = maxAge, minAge
	}

	maxDistance := prefs.MaxDistanceKM
	if maxDistance <= 0 {
		maxDistance = s.cfg.DefaultMaxDistanceKM
	}
	if maxDistance > s.cfg.MaxDistanceKM {
		maxDistance = s.cfg.MaxDistanceKM
	}

	return model.CandidateFilter{
		SeekerID:        seeker.UserID,
		Lat:             *seeker.Lat,
		Lon:             *seeker.Lon,
		MinAge:          minAge,
		MaxAge:          maxAge,
		MaxDistanceKM:   maxDistance,
		PreferredGender: prefs.PreferredGender,
		ExcludeUserIDs:  exclude,
		Limit:           s.cfg.PoolSize,
	}
}

// acceptCandidate re-checks the pushed-down filter and returns the distance to the seeker.
func acceptCandidate(filter model.CandidateFilter, p model.Profile) (float64, bool) {
	if p.UserID == filter.SeekerID || !p.HasLocation() {
		return 0, false
	}
	if !filter.PreferredGender.Accepts(p.Gender) {
		return 0, false
	}
	if p.Age < filter.MinAge || p.Age > filter.MaxAge {
		return 0, false
	}
	distance := rules.HaversineKM(filter.Lat, filter.Lon, *p.Lat, *p.Lon)
	if distance > float64(filter.MaxDistanceKM) {
		return 0, false
	}
	return distance, true
}
