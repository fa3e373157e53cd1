package model

import "github.com/divcode-web/Trueconnect-bot/internal/domain/enums"

type Candidate struct {
	Profile    Profile `json:"profile"`
	DistanceKM float64 `json:"distance_km"`
	Score      int     `json:"score"`
}

// CandidateFilter is the directory query pushed down to storage.
type CandidateFilter struct {
	SeekerID        int64
	Lat             float64
	Lon             float64
	MinAge          int
	MaxAge          int
	MaxDistanceKM   int
	PreferredGender enums.Gender
	ExcludeUserIDs  []int64
	Limit           int
}
