package model

import "time"

// BrowsingSession is one seeker's cursor over a loaded candidate batch.
type BrowsingSession struct {
	SeekerID     int64       `json:"seeker_id"`
	CycleID      string      `json:"cycle_id"`
	Candidates   []Candidate `json:"candidates"`
	Cursor       int         `json:"cursor"`
	PromoCounter int         `json:"promo_counter"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (s BrowsingSession) Exhausted() bool {
	return s.Cursor >= len(s.Candidates)
}

func (s BrowsingSession) Current() (Candidate, bool) {
	if s.Cursor < 0 || s.Exhausted() {
		return Candidate{}, false
	}
	return s.Candidates[s.Cursor], true
}
