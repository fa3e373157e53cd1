package model

import (
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
)

type Preferences struct {
	MinAge          int          `json:"min_age"`
	MaxAge          int          `json:"max_age"`
	MaxDistanceKM   int          `json:"max_distance_km"`
	PreferredGender enums.Gender `json:"preferred_gender"`
}

type Photo struct {
	FileID    string `json:"file_id,omitempty"`
	ObjectKey string `json:"object_key,omitempty"`
	IsPrimary bool   `json:"is_primary"`
}

type Profile struct {
	UserID           int64        `json:"user_id"`
	TelegramID       int64        `json:"telegram_id"`
	DisplayName      string       `json:"display_name"`
	Age              int          `json:"age"`
	Gender           enums.Gender `json:"gender"`
	Lat              *float64     `json:"lat,omitempty"`
	Lon              *float64     `json:"lon,omitempty"`
	Interests        string       `json:"interests"`
	Lifestyle        string       `json:"lifestyle"`
	Education        string       `json:"education"`
	Profession       string       `json:"profession"`
	Bio              string       `json:"bio"`
	IsVerified       bool         `json:"is_verified"`
	ProfileCompleted bool         `json:"profile_completed"`
	Preferences      Preferences  `json:"preferences"`
	Photos           []Photo      `json:"photos,omitempty"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (p Profile) HasLocation() bool {
	return p.Lat != nil && p.Lon != nil
}

func (p Profile) PrimaryPhoto() (Photo, bool) {
	for _, photo := range p.Photos {
		if photo.IsPrimary {
			return photo, true
		}
	}
	if len(p.Photos) > 0 {
		return p.Photos[0], true
	}
	return Photo{}, false
}
