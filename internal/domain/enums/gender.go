package enums

import "strings"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
	GenderBoth   Gender = "both"
)

func ParseGender(raw string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(raw))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	case GenderOther:
		return GenderOther
	case GenderBoth:
		return GenderBoth
	default:
		return ""
	}
}

// Accepts reports whether a candidate of gender g satisfies the preference.
// An empty preference means any gender.
func (pref Gender) Accepts(g Gender) bool {
	if pref == "" || pref == GenderBoth {
		return true
	}
	return pref == g
}
