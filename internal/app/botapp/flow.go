package botapp

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
	tginfra "github.com/divcode-web/Trueconnect-bot/internal/infra/telegram"
	browsingsvc "github.com/divcode-web/Trueconnect-bot/internal/services/browsing"
	geosvc "github.com/divcode-web/Trueconnect-bot/internal/services/geo"
	likessvc "github.com/divcode-web/Trueconnect-bot/internal/services/likes"
	mediasvc "github.com/divcode-web/Trueconnect-bot/internal/services/media"
	quotasvc "github.com/divcode-web/Trueconnect-bot/internal/services/quota"
)

type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMessage(ctx context.Context, chatID int64, text string, keyboard tginfra.Keyboard) error
	SendPhoto(ctx context.Context, chatID int64, photo tginfra.Photo, caption string, keyboard tginfra.Keyboard) error
	RequestLocation(ctx context.Context, chatID int64, text, buttonText string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type UserDirectory interface {
	EnsureUser(ctx context.Context, telegramID int64, username string) (model.User, error)
}

type Browser interface {
	Current(ctx context.Context, seekerID int64) (browsingsvc.Presentation, error)
	Reload(ctx context.Context, seekerID int64) (browsingsvc.Presentation, error)
	Decide(ctx context.Context, seekerID, targetID int64, action enums.SwipeAction) (browsingsvc.Outcome, error)
}

type MatchManager interface {
	List(ctx context.Context, userID int64, limit int) ([]model.Match, error)
	Unmatch(ctx context.Context, userID, targetID int64) (bool, error)
	Block(ctx context.Context, userID, targetID int64) error
}

type IncomingLikes interface {
	Incoming(ctx context.Context, userID int64, limit int) (likessvc.IncomingResult, error)
}

type QuotaViewer interface {
	Snapshot(ctx context.Context, userID int64) (quotasvc.Snapshot, error)
}

type LocationUpdater interface {
	UpdateProfileLocation(ctx context.Context, userID int64, lat, lon float64) error
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID int64) (model.Profile, error)
}

type PhotoResolver interface {
	Primary(ctx context.Context, profile model.Profile) (mediasvc.PhotoRef, error)
}

type SwipeLimiter interface {
	AllowSwipe(ctx context.Context, userID int64) (retryAfterSec int64, allowed bool, err error)
}

type RateLimitObserver interface {
	RateLimited()
}

type FlowDependencies struct {
	Messenger Messenger
	Users     UserDirectory
	Browser   Browser
	Matches   MatchManager
	Likes     IncomingLikes
	Quota     QuotaViewer
	Geo       LocationUpdater
	Profiles  ProfileReader
	Photos    PhotoResolver
	Limiter   SwipeLimiter
	Observer  RateLimitObserver
	Logger    *zap.Logger
}

type FlowTexts struct {
	Promo  string
	Upsell string
}

// Flow turns chat updates into matching operations. Handler errors are reported to the
// user and logged; they never stop the update loop.
type Flow struct {
	msg      Messenger
	users    UserDirectory
	browser  Browser
	matches  MatchManager
	likes    IncomingLikes
	quota    QuotaViewer
	geo      LocationUpdater
	profiles ProfileReader
	photos   PhotoResolver
	limiter  SwipeLimiter
	observer RateLimitObserver
	texts    FlowTexts
	logger   *zap.Logger
}

type matchLine struct {
	PartnerID int64
	Name      string
	FormedAt  time.Time
}

func NewFlow(deps FlowDependencies, texts FlowTexts) *Flow {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Flow{
		msg:      deps.Messenger,
		users:    deps.Users,
		browser:  deps.Browser,
		matches:  deps.Matches,
		likes:    deps.Likes,
		quota:    deps.Quota,
		geo:      deps.Geo,
		profiles: deps.Profiles,
		photos:   deps.Photos,
		limiter:  deps.Limiter,
		observer: deps.Observer,
		texts:    texts,
		logger:   logger,
	}
}

func (f *Flow) Handlers() tginfra.Handlers {
	return tginfra.Handlers{
		OnCommand:  f.HandleCommand,
		OnText:     f.HandleText,
		OnLocation: f.HandleLocation,
		OnCallback: f.HandleCallback,
	}
}

func (f *Flow) HandleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	user, err := f.users.EnsureUser(ctx, update.UserID, update.Username)
	if err != nil {
		return f.fail(ctx, update.ChatID, "resolve telegram user", err)
	}

	switch strings.ToLower(strings.TrimSpace(update.Command)) {
	case "start":
		return f.send(ctx, f.msg.RequestLocation(ctx, update.ChatID, welcomeText, shareLocationButton))
	case "browse":
		presentation, err := f.browser.Current(ctx, user.ID)
		return f.showOrFail(ctx, update.ChatID, presentation, err)
	case "reload":
		presentation, err := f.browser.Reload(ctx, user.ID)
		return f.showOrFail(ctx, update.ChatID, presentation, err)
	case "matches":
		return f.showMatches(ctx, update.ChatID, user.ID)
	case "likes":
		res, err := f.likes.Incoming(ctx, user.ID, 0)
		if err != nil {
			return f.fail(ctx, update.ChatID, "incoming likes", err)
		}
		return f.send(ctx, f.msg.SendText(ctx, update.ChatID, incomingLikesText(res)))
	case "quota":
		snapshot, err := f.quota.Snapshot(ctx, user.ID)
		if err != nil {
			return f.fail(ctx, update.ChatID, "quota snapshot", err)
		}
		return f.send(ctx, f.msg.SendText(ctx, update.ChatID, quotaText(snapshot)))
	default:
		return f.send(ctx, f.msg.SendText(ctx, update.ChatID, helpText))
	}
}

func (f *Flow) HandleText(ctx context.Context, update tginfra.TextUpdate) error {
	return f.send(ctx, f.msg.SendText(ctx, update.ChatID, helpText))
}

func (f *Flow) HandleLocation(ctx context.Context, update tginfra.LocationUpdate) error {
	user, err := f.users.EnsureUser(ctx, update.UserID, update.Username)
	if err != nil {
		return f.fail(ctx, update.ChatID, "resolve telegram user", err)
	}

	if err := f.geo.UpdateProfileLocation(ctx, user.ID, update.Lat, update.Lon); err != nil {
		if errors.Is(err, geosvc.ErrValidation) {
			return f.send(ctx, f.msg.SendText(ctx, update.ChatID, "That location looks invalid. Please try again."))
		}
		return f.fail(ctx, update.ChatID, "save location", err)
	}

	return f.send(ctx, f.msg.SendMessage(ctx, update.ChatID, locationSavedText, tginfra.Keyboard{
		{{Text: "🔍 Start browsing", Data: reloadData}},
	}))
}

func (f *Flow) HandleCallback(ctx context.Context, update tginfra.CallbackUpdate) error {
	cb, err := parseCallback(update.Data)
	if err != nil {
		return f.send(ctx, f.msg.AnswerCallback(ctx, update.CallbackID, "Unknown action"))
	}

	user, err := f.users.EnsureUser(ctx, update.UserID, update.Username)
	if err != nil {
		_ = f.msg.AnswerCallback(ctx, update.CallbackID, "")
		return f.fail(ctx, update.ChatID, "resolve telegram user", err)
	}

	switch cb.Kind {
	case callbackSwipe:
		return f.swipe(ctx, update, user.ID, cb)
	case callbackReload:
		_ = f.msg.AnswerCallback(ctx, update.CallbackID, "")
		presentation, err := f.browser.Reload(ctx, user.ID)
		return f.showOrFail(ctx, update.ChatID, presentation, err)
	case callbackNext:
		_ = f.msg.AnswerCallback(ctx, update.CallbackID, "")
		presentation, err := f.browser.Current(ctx, user.ID)
		return f.showOrFail(ctx, update.ChatID, presentation, err)
	case callbackMatches:
		_ = f.msg.AnswerCallback(ctx, update.CallbackID, "")
		return f.showMatches(ctx, update.ChatID, user.ID)
	case callbackUnmatch:
		deactivated, err := f.matches.Unmatch(ctx, user.ID, cb.TargetID)
		if err != nil {
			_ = f.msg.AnswerCallback(ctx, update.CallbackID, "")
			return f.fail(ctx, update.ChatID, "unmatch", err)
		}
		if !deactivated {
			return f.send(ctx, f.msg.AnswerCallback(ctx, update.CallbackID, "Already unmatched"))
		}
		return f.send(ctx, f.msg.AnswerCallback(ctx, update.CallbackID, "💔 Unmatched"))
	case callbackBlock:
		if err := f.matches.Block(ctx, user.ID, cb.TargetID); err != nil {
			_ = f.msg.AnswerCallback(ctx, update.CallbackID, "")
			return f.fail(ctx, update.ChatID, "block", err)
		}
		return f.send(ctx, f.msg.AnswerCallback(ctx, update.CallbackID, "🚫 Blocked"))
	default:
		return f.send(ctx, f.msg.AnswerCallback(ctx, update.CallbackID, "Unknown action"))
	}
}

func (f *Flow) swipe(ctx context.Context, update tginfra.CallbackUpdate, seekerID int64, cb callback) error {
	if f.limiter != nil {
		_, allowed, err := f.limiter.AllowSwipe(ctx, seekerID)
		if err != nil {
			f.logger.Warn("swipe rate check failed", zap.Int64("user_id", seekerID), zap.Error(err))
		} else if !allowed {
			if f.observer != nil {
				f.observer.RateLimited()
			}
			return f.send(ctx, f.msg.AnswerCallback(ctx, update.CallbackID, tooFastText))
		}
	}

	outcome, err := f.browser.Decide(ctx, seekerID, cb.TargetID, cb.Action)
	if err != nil && !outcome.Recorded() {
		switch {
		case errors.Is(err, browsingsvc.ErrStaleCandidate):
			_ = f.msg.AnswerCallback(ctx, update.CallbackID, staleCardText)
			presentation, err := f.browser.Current(ctx, seekerID)
			return f.showOrFail(ctx, update.ChatID, presentation, err)
		case errors.Is(err, browsingsvc.ErrNoSession), errors.Is(err, browsingsvc.ErrSessionExhausted):
			_ = f.msg.AnswerCallback(ctx, update.CallbackID, "")
			return f.send(ctx, f.msg.SendMessage(ctx, update.ChatID, exhaustedText, exhaustedKeyboard()))
		default:
			_ = f.msg.AnswerCallback(ctx, update.CallbackID, "")
			return f.fail(ctx, update.ChatID, "decide", err)
		}
	}
	if err != nil {
		f.logger.Warn("swipe recorded without match check",
			zap.Int64("user_id", seekerID),
			zap.Int64("target_id", cb.TargetID),
			zap.Error(err),
		)
	}

	if outcome.QuotaExceeded {
		_ = f.msg.AnswerCallback(ctx, update.CallbackID, "💔 Daily like limit reached")
		return f.send(ctx, f.msg.SendText(ctx, update.ChatID, f.texts.Upsell))
	}

	_ = f.msg.AnswerCallback(ctx, update.CallbackID, swipeAck(cb.Action))

	if outcome.Matched {
		f.notifyMatch(ctx, update.ChatID, outcome)
		if outcome.MatchCreated {
			// The seeker picks up browsing from the match notice.
			return nil
		}
	}

	return f.show(ctx, update.ChatID, outcome.Next)
}

func (f *Flow) notifyMatch(ctx context.Context, chatID int64, outcome browsingsvc.Outcome) {
	partner := ""
	if outcome.MatchedProfile != nil {
		partner = outcome.MatchedProfile.DisplayName
	}
	if err := f.msg.SendMessage(ctx, chatID, matchText(partner), matchNoticeKeyboard()); err != nil {
		f.logger.Warn("send match notice failed", zap.Error(err))
	}

	if !outcome.MatchCreated || outcome.MatchedProfile == nil || outcome.MatchedProfile.TelegramID == 0 {
		return
	}
	if err := f.msg.SendMessage(ctx, outcome.MatchedProfile.TelegramID, counterpartMatchText(), tginfra.Keyboard{
		{{Text: "👥 View All Matches", Data: matchesListData}},
	}); err != nil {
		f.logger.Warn("notify matched user failed",
			zap.Int64("match_id", outcome.Match.ID),
			zap.Error(err),
		)
	}
}

func (f *Flow) showMatches(ctx context.Context, chatID, userID int64) error {
	items, err := f.matches.List(ctx, userID, 0)
	if err != nil {
		return f.fail(ctx, chatID, "list matches", err)
	}

	lines := make([]matchLine, 0, len(items))
	for _, match := range items {
		line := matchLine{PartnerID: match.Other(userID), FormedAt: match.FormedAt}
		if f.profiles != nil {
			if profile, err := f.profiles.GetProfile(ctx, line.PartnerID); err == nil {
				line.Name = profile.DisplayName
			}
		}
		lines = append(lines, line)
	}

	text, keyboard := matchesMessage(lines)
	return f.send(ctx, f.msg.SendMessage(ctx, chatID, text, keyboard))
}

func (f *Flow) showOrFail(ctx context.Context, chatID int64, p browsingsvc.Presentation, err error) error {
	if err != nil {
		if errors.Is(err, apperr.ErrProfileIncomplete) || errors.Is(err, apperr.ErrProfileNotFound) {
			return f.send(ctx, f.msg.RequestLocation(ctx, chatID, incompleteText, shareLocationButton))
		}
		return f.fail(ctx, chatID, "load candidates", err)
	}
	return f.show(ctx, chatID, p)
}

func (f *Flow) show(ctx context.Context, chatID int64, p browsingsvc.Presentation) error {
	if p.Candidate == nil {
		return f.send(ctx, f.msg.SendMessage(ctx, chatID, exhaustedText, exhaustedKeyboard()))
	}
	if p.Interstitial && strings.TrimSpace(f.texts.Promo) != "" {
		return f.send(ctx, f.msg.SendMessage(ctx, chatID, f.texts.Promo, continueKeyboard()))
	}

	candidate := *p.Candidate
	var photo tginfra.Photo
	if f.photos != nil {
		ref, err := f.photos.Primary(ctx, candidate.Profile)
		if err != nil {
			f.logger.Warn("resolve candidate photo failed", zap.Int64("candidate_id", candidate.Profile.UserID), zap.Error(err))
		} else {
			photo = tginfra.Photo{FileID: ref.FileID, URL: ref.URL}
		}
	}

	return f.send(ctx, f.msg.SendPhoto(ctx, chatID, photo, candidateCaption(candidate), candidateKeyboard(candidate.Profile.UserID)))
}

func (f *Flow) fail(ctx context.Context, chatID int64, op string, err error) error {
	f.logger.Error("bot update failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
	return f.send(ctx, f.msg.SendText(ctx, chatID, genericErrorText))
}

// send logs delivery failures. Telegram errors never stop the listener.
func (f *Flow) send(_ context.Context, err error) error {
	if err != nil {
		f.logger.Warn("telegram send failed", zap.Error(err))
	}
	return nil
}

func swipeAck(action enums.SwipeAction) string {
	switch action {
	case enums.SwipeActionLike:
		return "💕 Liked!"
	case enums.SwipeActionSuperLike:
		return "⭐ Super liked!"
	default:
		return "👋 Passed"
	}
}
