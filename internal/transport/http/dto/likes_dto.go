package dto

type IncomingLikesResponse struct {
	Blurred    bool                `json:"blurred"`
	TotalCount int                 `json:"total_count"`
	Preview    []int64             `json:"preview,omitempty"`
	Items      []CandidateResponse `json:"items"`
}
