package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// VerifyInitData checks the Mini App init data signature against the bot token and
// returns the Telegram user it carries. maxAge <= 0 skips the auth_date freshness check.
func VerifyInitData(initData, botToken string, maxAge time.Duration, now time.Time) (TelegramUser, error) {
	values, err := url.ParseQuery(strings.TrimSpace(initData))
	if err != nil || len(values) == 0 {
		return TelegramUser{}, fmt.Errorf("parse init data: %w", ErrInvalidInput)
	}

	gotHash := values.Get("hash")
	if gotHash == "" || botToken == "" {
		return TelegramUser{}, ErrUnauthorized
	}

	if !hmac.Equal([]byte(gotHash), []byte(initDataHash(values, botToken))) {
		return TelegramUser{}, ErrUnauthorized
	}

	if maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil || now.Sub(time.Unix(authDate, 0)) > maxAge {
			return TelegramUser{}, ErrUnauthorized
		}
	}

	return parseInitDataUser(values)
}

// ResolveUnsignedInitData accepts "user_id=<id>" or a bare id. Development only.
func ResolveUnsignedInitData(initData string) (TelegramUser, error) {
	trimmed := strings.TrimSpace(initData)
	if trimmed == "" {
		return TelegramUser{}, fmt.Errorf("init data is empty: %w", ErrInvalidInput)
	}
	if parsed, err := strconv.ParseInt(trimmed, 10, 64); err == nil && parsed > 0 {
		return TelegramUser{ID: parsed}, nil
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return TelegramUser{}, fmt.Errorf("parse init data: %w", ErrInvalidInput)
	}
	if values.Get("user") != "" {
		return parseInitDataUser(values)
	}
	if parsed, err := strconv.ParseInt(values.Get("user_id"), 10, 64); err == nil && parsed > 0 {
		return TelegramUser{ID: parsed}, nil
	}

	return TelegramUser{}, fmt.Errorf("telegram user id is missing: %w", ErrInvalidInput)
}

func initDataHash(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+values.Get(key))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseInitDataUser(values url.Values) (TelegramUser, error) {
	var user TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID <= 0 {
		return TelegramUser{}, fmt.Errorf("decode init data user: %w", ErrInvalidInput)
	}
	return user, nil
}
