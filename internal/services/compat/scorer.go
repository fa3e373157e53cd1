// Package compat scores how well two profiles fit each other.
package compat

import (
	"math"
	"strings"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/rules"
)

const (
	AgeWeight       = 20
	DistanceWeight  = 30
	InterestsWeight = 25
	EducationWeight = 15
	LifestyleWeight = 10

	MaxScore = AgeWeight + DistanceWeight + InterestsWeight + EducationWeight + LifestyleWeight
)

type Config struct {
	// Normalize rescales the sum over the terms that had inputs on both sides.
	Normalize bool
}

type Scorer struct {
	cfg Config
}

type Breakdown struct {
	Age       int
	Distance  int
	Interests int
	Education int
	Lifestyle int

	// Applicable is the maximum reachable sum given which inputs were present.
	Applicable int
}

func (b Breakdown) Sum() int {
	return b.Age + b.Distance + b.Interests + b.Education + b.Lifestyle
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

func (s *Scorer) Score(a, b model.Profile) int {
	breakdown := s.Breakdown(a, b)
	sum := breakdown.Sum()
	if s.cfg.Normalize {
		if breakdown.Applicable <= 0 {
			return 0
		}
		sum = int(math.Round(float64(sum) / float64(breakdown.Applicable) * MaxScore))
	}
	return clamp(sum, 0, MaxScore)
}

func (s *Scorer) Breakdown(a, b model.Profile) Breakdown {
	out := Breakdown{
		Interests:  overlapScore(a.Interests, b.Interests, InterestsWeight),
		Education:  educationScore(a.Education, b.Education),
		Lifestyle:  overlapScore(a.Lifestyle, b.Lifestyle, LifestyleWeight),
		Applicable: InterestsWeight + EducationWeight + LifestyleWeight,
	}

	if a.Age > 0 && b.Age > 0 {
		out.Age = ageScore(a.Age, b.Age)
		out.Applicable += AgeWeight
	}
	if a.HasLocation() && b.HasLocation() {
		out.Distance = distanceScore(rules.HaversineKM(*a.Lat, *a.Lon, *b.Lat, *b.Lon))
		out.Applicable += DistanceWeight
	}

	return out
}

func ageScore(a, b int) int {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 2:
		return 20
	case diff <= 5:
		return 15
	case diff <= 10:
		return 10
	case diff <= 15:
		return 5
	default:
		return 0
	}
}

func distanceScore(km float64) int {
	switch {
	case km <= 5:
		return 30
	case km <= 15:
		return 25
	case km <= 30:
		return 20
	case km <= 50:
		return 15
	case km <= 100:
		return 10
	default:
		return 0
	}
}

func educationScore(a, b string) int {
	ea := enums.NormalizeEducation(a)
	eb := enums.NormalizeEducation(b)
	if ea == "" || eb == "" {
		return 0
	}
	if ea == eb {
		return EducationWeight
	}

	la, lb := ea.Level(), eb.Level()
	if la == 0 || lb == 0 {
		return 0
	}
	if la-lb == 1 || lb-la == 1 {
		return 10
	}
	return 0
}

func overlapScore(a, b string, weight int) int {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common := 0
	for token := range ta {
		if _, ok := tb[token]; ok {
			common++
		}
	}

	denominator := len(ta)
	if len(tb) > denominator {
		denominator = len(tb)
	}
	return int(math.Round(float64(common) / float64(denominator) * float64(weight)))
}

func tokenize(raw string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		out[token] = struct{}{}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
