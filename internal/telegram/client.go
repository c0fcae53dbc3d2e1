package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/frahmantamala/charity-reminder/internal/notification"
)

// BotAPI is the part of *tgbotapi.BotAPI the bot uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client delivers notification messages through the Bot API.
type Client struct {
	bot BotAPI
}

func NewClient(bot BotAPI) *Client {
	return &Client{bot: bot}
}

// NewBot authorizes token against the Bot API.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	return bot, nil
}

func (c *Client) Send(ctx context.Context, msg notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chattable, err := Chattable(msg)
	if err != nil {
		return err
	}
	if _, err := c.bot.Send(chattable); err != nil {
		return fmt.Errorf("telegram send to %d: %w", msg.ChatID, err)
	}
	return nil
}

// Chattable converts msg to the Bot API request that carries it. Text becomes
// the caption when there is an attachment.
func Chattable(msg notification.Message) (tgbotapi.Chattable, error) {
	markup := keyboard(msg.Actions)

	if msg.Attachment == nil {
		m := tgbotapi.NewMessage(msg.ChatID, msg.Text)
		if markup != nil {
			m.ReplyMarkup = *markup
		}
		return m, nil
	}

	a := msg.Attachment
	var file tgbotapi.RequestFileData
	switch {
	case a.FileID != "":
		file = tgbotapi.FileID(a.FileID)
	case len(a.Body) > 0:
		file = tgbotapi.FileBytes{Name: a.Filename, Bytes: a.Body}
	default:
		return nil, fmt.Errorf("attachment for chat %d has neither file id nor body", msg.ChatID)
	}

	switch a.Kind {
	case notification.AttachmentPhoto:
		p := tgbotapi.NewPhoto(msg.ChatID, file)
		p.Caption = msg.Text
		if markup != nil {
			p.ReplyMarkup = *markup
		}
		return p, nil
	case notification.AttachmentDocument:
		d := tgbotapi.NewDocument(msg.ChatID, file)
		d.Caption = msg.Text
		if markup != nil {
			d.ReplyMarkup = *markup
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported attachment kind %q", a.Kind)
	}
}

func keyboard(actions []notification.Action) *tgbotapi.InlineKeyboardMarkup {
	if len(actions) == 0 {
		return nil
	}
	row := make([]tgbotapi.InlineKeyboardButton, len(actions))
	for i, a := range actions {
		row[i] = tgbotapi.NewInlineKeyboardButtonData(a.Text, a.Data)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(row)
	return &markup
}
