package model

// QuotaKey identifies one user's positive-swipe counter for one calendar day.
type QuotaKey struct {
	UserID int64
	Day    string
}
