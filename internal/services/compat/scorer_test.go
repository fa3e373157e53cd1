package compat

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

func TestScoreExampleScenario(t *testing.T) {
	seeker := model.Profile{
		UserID:    1,
		Age:       30,
		Lat:       ptr(40.0),
		Lon:       ptr(-74.0),
		Interests: "Hiking, music, cooking, travel",
		Lifestyle: "active, non-smoker",
		Education: "bachelors",
	}
	candidate := model.Profile{
		UserID:    2,
		Age:       28,
		Lat:       ptr(40.09), // ~10 km north
		Lon:       ptr(-74.0),
		Interests: "music , Travel, chess, yoga",
		Lifestyle: "active",
		Education: "Bachelors",
	}

	scorer := NewScorer(Config{})
	got := scorer.Breakdown(seeker, candidate)

	want := Breakdown{Age: 20, Distance: 25, Interests: 13, Education: 15, Lifestyle: 5, Applicable: MaxScore}
	if got != want {
		t.Fatalf("unexpected breakdown: got %+v want %+v", got, want)
	}
	if score := scorer.Score(seeker, candidate); score != 78 {
		t.Fatalf("unexpected score: got %d want 78", score)
	}
}

func TestScoreTermBrackets(t *testing.T) {
	tests := []struct {
		name string
		fn   func() int
		want int
	}{
		{name: "age gap 2", fn: func() int { return ageScore(30, 32) }, want: 20},
		{name: "age gap 5", fn: func() int { return ageScore(35, 30) }, want: 15},
		{name: "age gap 10", fn: func() int { return ageScore(20, 30) }, want: 10},
		{name: "age gap 15", fn: func() int { return ageScore(45, 30) }, want: 5},
		{name: "age gap 16", fn: func() int { return ageScore(46, 30) }, want: 0},
		{name: "distance 5", fn: func() int { return distanceScore(5) }, want: 30},
		{name: "distance 15", fn: func() int { return distanceScore(15) }, want: 25},
		{name: "distance 30", fn: func() int { return distanceScore(29.9) }, want: 20},
		{name: "distance 50", fn: func() int { return distanceScore(50) }, want: 15},
		{name: "distance 100", fn: func() int { return distanceScore(99) }, want: 10},
		{name: "distance far", fn: func() int { return distanceScore(100.5) }, want: 0},
		{name: "education exact", fn: func() int { return educationScore("masters", " MASTERS ") }, want: 15},
		{name: "education adjacent", fn: func() int { return educationScore("masters", "phd") }, want: 10},
		{name: "education two steps", fn: func() int { return educationScore("high_school", "bachelors") }, want: 0},
		{name: "education off scale", fn: func() int { return educationScore("bootcamp", "high_school") }, want: 0},
		{name: "education missing", fn: func() int { return educationScore("", "") }, want: 0},
		{name: "overlap empty side", fn: func() int { return overlapScore("", "music", 25) }, want: 0},
		{name: "overlap full", fn: func() int { return overlapScore("a,b", "B, A", 25) }, want: 25},
		{name: "overlap duplicates collapse", fn: func() int { return overlapScore("a,a,b", "a", 10) }, want: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.fn(); got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestScoreMissingLocationContributesZero(t *testing.T) {
	a := model.Profile{Age: 25, Lat: ptr(10.0), Lon: ptr(10.0)}
	b := model.Profile{Age: 25}

	scorer := NewScorer(Config{})
	breakdown := scorer.Breakdown(a, b)
	if breakdown.Distance != 0 {
		t.Fatalf("expected zero distance term, got %d", breakdown.Distance)
	}
	if breakdown.Applicable != MaxScore-DistanceWeight {
		t.Fatalf("unexpected applicable max: %d", breakdown.Applicable)
	}
	if got := scorer.Score(a, b); got != 20 {
		t.Fatalf("raw score should be age only, got %d", got)
	}

	normalized := NewScorer(Config{Normalize: true})
	if got := normalized.Score(a, b); got != 29 {
		t.Fatalf("normalized score should rescale 20/70, got %d", got)
	}
}

func TestScoreIsSymmetricAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	profiles := make([]model.Profile, 0, 60)
	for i := 0; i < 60; i++ {
		profiles = append(profiles, randomProfile(rng, int64(i+1)))
	}

	for _, cfg := range []Config{{}, {Normalize: true}} {
		scorer := NewScorer(cfg)
		for i := range profiles {
			for j := range profiles {
				ab := scorer.Score(profiles[i], profiles[j])
				ba := scorer.Score(profiles[j], profiles[i])
				if ab != ba {
					t.Fatalf("score not symmetric (normalize=%v) for %d/%d: %d vs %d", cfg.Normalize, i, j, ab, ba)
				}
				if ab < 0 || ab > MaxScore {
					t.Fatalf("score out of bounds (normalize=%v): %d", cfg.Normalize, ab)
				}
			}
		}
	}
}

func TestScoreIdenticalCompleteProfilesReachMax(t *testing.T) {
	p := model.Profile{
		Age:       27,
		Lat:       ptr(53.9),
		Lon:       ptr(27.56),
		Interests: "music,travel",
		Lifestyle: "active",
		Education: "phd",
	}
	if got := NewScorer(Config{}).Score(p, p); got != MaxScore {
		t.Fatalf("expected max score, got %d", got)
	}
}

var (
	sampleInterests = []string{"music", "travel", "hiking", "chess", "yoga", "movies", "cooking", "art"}
	sampleEducation = []string{"", "high_school", "some_college", "bachelors", "masters", "phd", "bootcamp"}
)

func randomProfile(rng *rand.Rand, id int64) model.Profile {
	p := model.Profile{
		UserID:    id,
		Gender:    enums.GenderFemale,
		Interests: randomList(rng, sampleInterests),
		Lifestyle: randomList(rng, sampleInterests[:4]),
		Education: sampleEducation[rng.Intn(len(sampleEducation))],
	}
	if rng.Intn(5) > 0 {
		p.Age = 18 + rng.Intn(60)
	}
	if rng.Intn(4) > 0 {
		p.Lat = ptr(50 + rng.Float64()*2)
		p.Lon = ptr(20 + rng.Float64()*2)
	}
	return p
}

func randomList(rng *rand.Rand, pool []string) string {
	n := rng.Intn(len(pool) + 1)
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, pool[rng.Intn(len(pool))])
	}
	return strings.Join(items, ", ")
}

func ptr(v float64) *float64 {
	return &v
}
