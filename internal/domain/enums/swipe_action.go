package enums

import "strings"

type SwipeAction string

const (
	SwipeActionPass      SwipeAction = "pass"
	SwipeActionLike      SwipeAction = "like"
	SwipeActionSuperLike SwipeAction = "super_like"
)

func ParseSwipeAction(raw string) (SwipeAction, bool) {
	switch SwipeAction(strings.ToLower(strings.TrimSpace(raw))) {
	case SwipeActionPass:
		return SwipeActionPass, true
	case SwipeActionLike:
		return SwipeActionLike, true
	case SwipeActionSuperLike, "superlike":
		return SwipeActionSuperLike, true
	default:
		return "", false
	}
}

func (a SwipeAction) Valid() bool {
	switch a {
	case SwipeActionPass, SwipeActionLike, SwipeActionSuperLike:
		return true
	default:
		return false
	}
}

// IsPositive reports whether the action counts towards a match and the daily quota.
func (a SwipeAction) IsPositive() bool {
	return a == SwipeActionLike || a == SwipeActionSuperLike
}
