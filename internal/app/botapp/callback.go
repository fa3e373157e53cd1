package botapp

import (
	"errors"
	"strconv"
	"strings"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
)

var errUnknownCallback = errors.New("unknown callback")

type callbackKind string

const (
	callbackSwipe   callbackKind = "swipe"
	callbackReload  callbackKind = "reload"
	callbackNext    callbackKind = "next"
	callbackUnmatch callbackKind = "unmatch"
	callbackBlock   callbackKind = "block"
	callbackMatches callbackKind = "matches"
)

type callback struct {
	Kind     callbackKind
	Action   enums.SwipeAction
	TargetID int64
}

// Callback data layout: "swipe:<action>:<target>", "browse:reload", "browse:next",
// "match:unmatch:<target>", "match:block:<target>", "match:list".
func swipeData(action enums.SwipeAction, targetID int64) string {
	return "swipe:" + string(action) + ":" + strconv.FormatInt(targetID, 10)
}

func matchData(kind callbackKind, targetID int64) string {
	return "match:" + string(kind) + ":" + strconv.FormatInt(targetID, 10)
}

const (
	reloadData      = "browse:reload"
	nextData        = "browse:next"
	matchesListData = "match:list"
)

func parseCallback(raw string) (callback, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	switch {
	case len(parts) == 3 && parts[0] == "swipe":
		action, ok := enums.ParseSwipeAction(parts[1])
		if !ok {
			return callback{}, errUnknownCallback
		}
		targetID, err := parseTarget(parts[2])
		if err != nil {
			return callback{}, err
		}
		return callback{Kind: callbackSwipe, Action: action, TargetID: targetID}, nil
	case len(parts) == 2 && parts[0] == "browse" && parts[1] == "reload":
		return callback{Kind: callbackReload}, nil
	case len(parts) == 2 && parts[0] == "browse" && parts[1] == "next":
		return callback{Kind: callbackNext}, nil
	case len(parts) == 2 && parts[0] == "match" && parts[1] == "list":
		return callback{Kind: callbackMatches}, nil
	case len(parts) == 3 && parts[0] == "match":
		kind := callbackKind(parts[1])
		if kind != callbackUnmatch && kind != callbackBlock {
			return callback{}, errUnknownCallback
		}
		targetID, err := parseTarget(parts[2])
		if err != nil {
			return callback{}, err
		}
		return callback{Kind: kind, TargetID: targetID}, nil
	default:
		return callback{}, errUnknownCallback
	}
}

func parseTarget(raw string) (int64, error) {
	targetID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || targetID <= 0 {
		return 0, errUnknownCallback
	}
	return targetID, nil
}
