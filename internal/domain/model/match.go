package model

import "time"

type Match struct {
	ID         int64     `json:"id"`
	UserLowID  int64     `json:"user_low_id"`
	UserHighID int64     `json:"user_high_id"`
	FormedAt   time.Time `json:"formed_at"`
	Active     bool      `json:"active"`
}

// CanonicalPair orders two user ids so that a pair has one identity regardless of direction.
func CanonicalPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

func (m Match) Other(userID int64) int64 {
	if m.UserLowID == userID {
		return m.UserHighID
	}
	return m.UserLowID
}

func (m Match) Includes(userID int64) bool {
	return m.UserLowID == userID || m.UserHighID == userID
}
