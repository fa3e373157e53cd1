package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api *tgbotapi.BotAPI
}

type CommandUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Command  string
	Args     string
}

type TextUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

type LocationUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Lat      float64
	Lon      float64
}

type CallbackUpdate struct {
	CallbackID string
	ChatID     int64
	UserID     int64
	Username   string
	Data       string
}

type Handlers struct {
	OnCommand  func(context.Context, CommandUpdate) error
	OnText     func(context.Context, TextUpdate) error
	OnLocation func(context.Context, LocationUpdate) error
	OnCallback func(context.Context, CallbackUpdate) error
}

func NewBot(token string) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	client := &http.Client{Timeout: 60 * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(strings.TrimSpace(token), tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{api: api}, nil
}

func (b *Bot) Username() string {
	if b == nil || b.api == nil {
		return ""
	}
	return b.api.Self.UserName
}

// Listen long-polls updates until ctx is done. A handler error stops the loop.
func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := dispatch(ctx, update, handlers); err != nil {
				return err
			}
		}
	}
}

func dispatch(ctx context.Context, update tgbotapi.Update, handlers Handlers) error {
	if msg := update.Message; msg != nil && msg.From != nil {
		switch {
		case msg.IsCommand() && handlers.OnCommand != nil:
			return handlers.OnCommand(ctx, CommandUpdate{
				ChatID:   msg.Chat.ID,
				UserID:   msg.From.ID,
				Username: msg.From.UserName,
				Command:  msg.Command(),
				Args:     msg.CommandArguments(),
			})
		case msg.Location != nil && handlers.OnLocation != nil:
			return handlers.OnLocation(ctx, LocationUpdate{
				ChatID:   msg.Chat.ID,
				UserID:   msg.From.ID,
				Username: msg.From.UserName,
				Lat:      msg.Location.Latitude,
				Lon:      msg.Location.Longitude,
			})
		case strings.TrimSpace(msg.Text) != "" && handlers.OnText != nil:
			return handlers.OnText(ctx, TextUpdate{
				ChatID:   msg.Chat.ID,
				UserID:   msg.From.ID,
				Username: msg.From.UserName,
				Text:     strings.TrimSpace(msg.Text),
			})
		}
		return nil
	}

	if cb := update.CallbackQuery; cb != nil && cb.From != nil && handlers.OnCallback != nil {
		chatID := int64(0)
		if cb.Message != nil {
			chatID = cb.Message.Chat.ID
		}
		return handlers.OnCallback(ctx, CallbackUpdate{
			CallbackID: cb.ID,
			ChatID:     chatID,
			UserID:     cb.From.ID,
			Username:   cb.From.UserName,
			Data:       cb.Data,
		})
	}

	return nil
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	return b.SendMessage(ctx, chatID, text, nil)
}

func (b *Bot) SendMessage(_ context.Context, chatID int64, text string, keyboard Keyboard) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if markup, ok := keyboard.markup(); ok {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}

// SendPhoto sends a photo card. Photo.FileID wins over Photo.URL.
func (b *Bot) SendPhoto(ctx context.Context, chatID int64, photo Photo, caption string, keyboard Keyboard) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	var file tgbotapi.RequestFileData
	switch {
	case photo.FileID != "":
		file = tgbotapi.FileID(photo.FileID)
	case photo.URL != "":
		file = tgbotapi.FileURL(photo.URL)
	default:
		return b.SendMessage(ctx, chatID, caption, keyboard)
	}

	msg := tgbotapi.NewPhoto(chatID, file)
	msg.Caption = caption
	if markup, ok := keyboard.markup(); ok {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram photo: %w", err)
	}

	return nil
}

// RequestLocation asks the user to share a location through a one-time reply keyboard.
func (b *Bot) RequestLocation(_ context.Context, chatID int64, text, buttonText string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(buttonText)))
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send location request: %w", err)
	}

	return nil
}

func (b *Bot) AnswerCallback(_ context.Context, callbackID, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	return nil
}
