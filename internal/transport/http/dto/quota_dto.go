package dto

import "time"

type QuotaSnapshotResponse struct {
	IsPremium bool      `json:"is_premium"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	LikesLeft int       `json:"likes_left"`
	ResetAt   time.Time `json:"reset_at"`
}
