package botapp

import (
	"fmt"
	"strings"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
	tginfra "github.com/divcode-web/Trueconnect-bot/internal/infra/telegram"
	likessvc "github.com/divcode-web/Trueconnect-bot/internal/services/likes"
	quotasvc "github.com/divcode-web/Trueconnect-bot/internal/services/quota"
)

const (
	welcomeText         = "Welcome to TrueConnect! Share your location so we can find people nearby."
	shareLocationButton = "📍 Share location"
	locationSavedText   = "📍 Location saved."
	exhaustedText       = "You've seen all available matches! Check back later for more."
	incompleteText      = "Please complete your profile and share your location before browsing."
	staleCardText       = "This card is outdated"
	tooFastText         = "Slow down a little 🙂"
	genericErrorText    = "Sorry, something went wrong. Please try again."
	helpText            = "Commands:\n/browse - find matches\n/matches - your matches\n/likes - who liked you\n/quota - likes left today"
	noMatchesText       = "No matches yet. Keep browsing!"
)

var educationLabels = map[enums.Education]string{
	enums.EducationHighSchool:  "High school",
	enums.EducationSomeCollege: "Some college",
	enums.EducationBachelors:   "Bachelor's degree",
	enums.EducationMasters:     "Master's degree",
	enums.EducationPhD:         "PhD",
}

func candidateCaption(c model.Candidate) string {
	p := c.Profile
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %d\n", p.DisplayName, p.Age)
	fmt.Fprintf(&b, "📍 %s away\n", formatDistance(c.DistanceKM))

	if p.Bio != "" {
		fmt.Fprintf(&b, "\n%s\n\n", p.Bio)
	}
	if p.Profession != "" {
		fmt.Fprintf(&b, "💼 %s\n", p.Profession)
	}
	if p.Education != "" {
		fmt.Fprintf(&b, "🎓 %s\n", formatEducation(p.Education))
	}
	if p.Interests != "" {
		fmt.Fprintf(&b, "🎯 %s\n", p.Interests)
	}
	if p.Lifestyle != "" {
		fmt.Fprintf(&b, "🌟 %s\n", p.Lifestyle)
	}
	if p.IsVerified {
		b.WriteString("\n✅ Verified Profile")
	}
	if c.Score > 0 {
		fmt.Fprintf(&b, "\n💕 %d%% Match", c.Score)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatDistance(km float64) string {
	if km < 1 {
		return "less than 1 km"
	}
	return fmt.Sprintf("%.0f km", km)
}

func formatEducation(raw string) string {
	if label, ok := educationLabels[enums.NormalizeEducation(raw)]; ok {
		return label
	}
	return raw
}

func candidateKeyboard(targetID int64) tginfra.Keyboard {
	return tginfra.Keyboard{
		{
			{Text: "❌", Data: swipeData(enums.SwipeActionPass, targetID)},
			{Text: "💕", Data: swipeData(enums.SwipeActionLike, targetID)},
			{Text: "⭐", Data: swipeData(enums.SwipeActionSuperLike, targetID)},
		},
	}
}

func exhaustedKeyboard() tginfra.Keyboard {
	return tginfra.Keyboard{{{Text: "🔄 Load More", Data: reloadData}}}
}

func continueKeyboard() tginfra.Keyboard {
	return tginfra.Keyboard{{{Text: "➡️ Continue Browsing", Data: nextData}}}
}

func matchNoticeKeyboard() tginfra.Keyboard {
	return tginfra.Keyboard{
		{{Text: "➡️ Continue Browsing", Data: nextData}},
		{{Text: "👥 View All Matches", Data: matchesListData}},
	}
}

func matchText(partner string) string {
	if partner == "" {
		return "🎉 It's a Match!\n\nYou liked each other. Start chatting now and get to know each other better."
	}
	return fmt.Sprintf("🎉 It's a Match!\n\nYou and %s liked each other!\nStart chatting now and get to know each other better.", partner)
}

func counterpartMatchText() string {
	return "🎉 New Match!\n\nYou have a new match! Open /matches to see who."
}

func matchesMessage(items []matchLine) (string, tginfra.Keyboard) {
	if len(items) == 0 {
		return noMatchesText, nil
	}

	var b strings.Builder
	b.WriteString("👥 Your matches:\n")
	keyboard := make(tginfra.Keyboard, 0, len(items))
	for i, item := range items {
		name := item.Name
		if name == "" {
			name = fmt.Sprintf("Match #%d", i+1)
		}
		fmt.Fprintf(&b, "\n%d. %s (since %s)", i+1, name, item.FormedAt.Format("2 Jan 2006"))
		keyboard = append(keyboard, []tginfra.Button{
			{Text: "💔 Unmatch " + name, Data: matchData(callbackUnmatch, item.PartnerID)},
			{Text: "🚫 Block", Data: matchData(callbackBlock, item.PartnerID)},
		})
	}
	return b.String(), keyboard
}

func incomingLikesText(res likessvc.IncomingResult) string {
	if res.TotalCount == 0 {
		return "No new likes yet."
	}
	if res.Blurred {
		return fmt.Sprintf("💕 %d people like you!\n\nUpgrade to Premium to see who they are.", res.TotalCount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💕 %d people like you:\n", res.TotalCount)
	for _, p := range res.Profiles {
		fmt.Fprintf(&b, "\n• %s, %d", p.DisplayName, p.Age)
	}
	return b.String()
}

func quotaText(s quotasvc.Snapshot) string {
	if s.Premium {
		return "⭐ Premium: unlimited likes."
	}
	return fmt.Sprintf("💕 %d of %d likes left today.\nResets at %s.", s.Remaining, s.Limit, s.ResetAt.Format("15:04 MST"))
}
