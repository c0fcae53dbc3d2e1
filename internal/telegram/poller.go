package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/inbound"
	"github.com/frahmantamala/charity-reminder/internal/notification"
	"github.com/frahmantamala/charity-reminder/internal/storage"
	"github.com/frahmantamala/charity-reminder/pkg/logger"
)

type EventHandler interface {
	Handle(ctx context.Context, e inbound.Event) ([]notification.Message, error)
}

type ChatLookup interface {
	GetByChatID(ctx context.Context, chatID int64) (*donor.Donor, error)
}

// ReceiptGate says whether a receipt for the period would be taken at all.
type ReceiptGate interface {
	AcceptsReceipt(ctx context.Context, donorID int64, period jalali.Period) (bool, error)
}

type PollerConfig struct {
	UpdateTimeout int
	AdminChatID   int64
}

// Poller long-polls the Bot API, turns updates into inbound events and sends
// the replies back.
type Poller struct {
	bot      BotAPI
	handler  EventHandler
	sender   notification.Sender
	chats    ChatLookup
	gate     ReceiptGate
	receipts storage.Store
	source   *clock.Source
	http     *http.Client
	config   PollerConfig
	logger   *slog.Logger
}

func NewPoller(bot BotAPI, handler EventHandler, sender notification.Sender, chats ChatLookup, gate ReceiptGate, receipts storage.Store, source *clock.Source, config PollerConfig, logger *slog.Logger) *Poller {
	if config.UpdateTimeout <= 0 {
		config.UpdateTimeout = 30
	}
	return &Poller{
		bot:      bot,
		handler:  handler,
		sender:   sender,
		chats:    chats,
		gate:     gate,
		receipts: receipts,
		source:   source,
		http:     http.DefaultClient,
		config:   config,
		logger:   logger,
	}
}

// Run blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.config.UpdateTimeout
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := p.bot.GetUpdatesChan(u)
	p.logger.Info("telegram poller started", "timeout", u.Timeout)

	for {
		select {
		case <-ctx.Done():
			p.bot.StopReceivingUpdates()
			p.logger.Info("telegram poller stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			p.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate processes one update and delivers its replies.
func (p *Poller) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	lg := p.logger.With("update_id", upd.UpdateID)
	ctx = logger.Into(ctx, lg)

	event, err := p.event(ctx, upd)
	if err != nil {
		lg.Error("failed to read telegram update", "error", err)
		return
	}
	if event == nil {
		return
	}

	replies, err := p.handler.Handle(ctx, event)
	if err != nil {
		lg.Error("inbound event failed", "event", fmt.Sprintf("%T", event), "error", err)
	}
	for _, reply := range replies {
		if err := p.sender.Send(ctx, reply); err != nil {
			lg.Error("failed to send reply", "chat_id", reply.ChatID, "error", err)
		}
	}
}

func (p *Poller) event(ctx context.Context, upd tgbotapi.Update) (inbound.Event, error) {
	switch {
	case upd.CallbackQuery != nil:
		return p.callback(upd.CallbackQuery), nil
	case upd.Message != nil:
		return p.message(ctx, upd.Message)
	default:
		return nil, nil
	}
}

func (p *Poller) callback(q *tgbotapi.CallbackQuery) inbound.Event {
	if _, err := p.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		p.logger.Warn("failed to answer callback", "callback_id", q.ID, "error", err)
	}

	approvalID, approve, ok := notification.ParseDecision(q.Data)
	if !ok {
		p.logger.Warn("ignoring unknown callback", "data", q.Data)
		return nil
	}

	var chatID int64
	switch {
	case q.Message != nil && q.Message.Chat != nil:
		chatID = q.Message.Chat.ID
	case q.From != nil:
		chatID = q.From.ID
	default:
		return nil
	}
	return inbound.AdminDecision{ChatID: chatID, ApprovalID: approvalID, Approve: approve}
}

func (p *Poller) message(ctx context.Context, msg *tgbotapi.Message) (inbound.Event, error) {
	if msg.Chat == nil {
		return nil, nil
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		return inbound.CommandInvoked{
			ChatID:  chatID,
			Command: msg.Command(),
			Args:    strings.Fields(msg.CommandArguments()),
		}, nil
	}

	if fileID, ext, ok := receiptFile(msg); ok {
		return p.receipt(ctx, chatID, fileID, ext)
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil, nil
	}

	// Verified donors and the admin have no PIN left to enter.
	if chatID == p.config.AdminChatID {
		return inbound.CommandInvoked{ChatID: chatID, Command: "help"}, nil
	}
	d, err := p.chats.GetByChatID(ctx, chatID)
	switch {
	case err == nil && d.IsVerified():
		return inbound.CommandInvoked{ChatID: chatID, Command: "help"}, nil
	case err != nil && !errors.Is(err, internal.ErrDonorNotFound):
		return nil, err
	}
	return inbound.PinEntered{ChatID: chatID, PIN: text}, nil
}

// receipt stores the uploaded image before handing it on. Chats without a
// verified donor, and periods that take no new receipt, skip the upload and
// are refused by the dispatcher.
func (p *Poller) receipt(ctx context.Context, chatID int64, fileID, ext string) (inbound.Event, error) {
	period := p.source.Period()
	ev := inbound.ReceiptUploaded{ChatID: chatID, FileID: fileID, Period: period}

	d, err := p.chats.GetByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, internal.ErrDonorNotFound) {
			return ev, nil
		}
		return nil, err
	}
	if !d.IsVerified() {
		return ev, nil
	}
	accepted, err := p.gate.AcceptsReceipt(ctx, d.ID, period)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return ev, nil
	}

	ref, err := p.download(ctx, fileID, storage.ReceiptKey(d.ID, period, ext))
	if err != nil {
		return nil, err
	}
	ev.ArtifactRef = ref
	return ev, nil
}

func (p *Poller) download(ctx context.Context, fileID, key string) (string, error) {
	url, err := p.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("download file %s: status %d", fileID, resp.StatusCode)
	}

	ref, err := p.receipts.Save(ctx, key, resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("store receipt %s: %w", key, err)
	}
	return ref, nil
}

// receiptFile picks the largest photo size, or an image sent as a document.
func receiptFile(msg *tgbotapi.Message) (fileID, ext string, ok bool) {
	if n := len(msg.Photo); n > 0 {
		return msg.Photo[n-1].FileID, ".jpg", true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		ext := path.Ext(msg.Document.FileName)
		if ext == "" {
			ext = "." + strings.TrimPrefix(msg.Document.MimeType, "image/")
		}
		return msg.Document.FileID, strings.ToLower(ext), true
	}
	return "", "", false
}
