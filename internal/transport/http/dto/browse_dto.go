package dto

type BrowseResponse struct {
	State        string             `json:"state"`
	CycleID      string             `json:"cycle_id,omitempty"`
	Position     int                `json:"position"`
	Total        int                `json:"total"`
	Interstitial bool               `json:"interstitial"`
	Candidate    *CandidateResponse `json:"candidate"`
}

type CandidateResponse struct {
	UserID      int64   `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Age         int     `json:"age"`
	Gender      string  `json:"gender"`
	DistanceKM  float64 `json:"distance_km"`
	Score       int     `json:"score"`
	Interests   string  `json:"interests,omitempty"`
	Education   string  `json:"education,omitempty"`
	Profession  string  `json:"profession,omitempty"`
	Bio         string  `json:"bio,omitempty"`
	IsVerified  bool    `json:"is_verified"`
	PhotoURL    string  `json:"photo_url,omitempty"`
	PhotoFileID string  `json:"photo_file_id,omitempty"`
}
