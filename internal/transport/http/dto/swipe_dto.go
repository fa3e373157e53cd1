package dto

type SwipeRequest struct {
	TargetID int64  `json:"target_id"`
	Action   string `json:"action"`
}

type SwipeResponse struct {
	OK            bool                  `json:"ok"`
	QuotaExceeded bool                  `json:"quota_exceeded"`
	Matched       bool                  `json:"matched"`
	MatchCreated  bool                  `json:"match_created"`
	MatchID       int64                 `json:"match_id,omitempty"`
	Quota         QuotaSnapshotResponse `json:"quota"`
	Next          BrowseResponse        `json:"next"`
}
