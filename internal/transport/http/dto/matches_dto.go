package dto

import "time"

type MatchItem struct {
	ID          int64     `json:"id"`
	PartnerID   int64     `json:"partner_id"`
	DisplayName string    `json:"display_name,omitempty"`
	FormedAt    time.Time `json:"formed_at"`
}

type MatchesResponse struct {
	Items []MatchItem `json:"items"`
}

type MatchTargetRequest struct {
	TargetID int64 `json:"target_id"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
