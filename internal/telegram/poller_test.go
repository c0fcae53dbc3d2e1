package telegram_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/inbound"
	"github.com/frahmantamala/charity-reminder/internal/notification"
	"github.com/frahmantamala/charity-reminder/internal/telegram"
)

type recordingHandler struct {
	events []inbound.Event
}

func (h *recordingHandler) Handle(_ context.Context, e inbound.Event) ([]notification.Message, error) {
	h.events = append(h.events, e)
	return []notification.Message{{ChatID: 555, Text: "ack"}}, nil
}

type chatMap map[int64]*donor.Donor

func (m chatMap) GetByChatID(_ context.Context, chatID int64) (*donor.Donor, error) {
	if d, ok := m[chatID]; ok {
		return d, nil
	}
	return nil, internal.ErrDonorNotFound
}

// periodGate refuses receipts for the periods it lists.
type periodGate map[jalali.Period]bool

func (g periodGate) AcceptsReceipt(_ context.Context, _ int64, period jalali.Period) (bool, error) {
	return !g[period], nil
}

type memoryStore struct {
	keys   []string
	bodies [][]byte
}

func (s *memoryStore) Save(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.keys = append(s.keys, key)
	s.bodies = append(s.bodies, b)
	return "mem://" + key, nil
}

type replySink struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (s *replySink) Send(_ context.Context, msg notification.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *replySink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

var _ = Describe("Poller", func() {
	const adminChat = int64(999)

	var (
		ctx     context.Context
		bot     *fakeBot
		handler *recordingHandler
		replies *replySink
		store   *memoryStore
		chats   chatMap
		gate    periodGate
		files   *httptest.Server
		poller  *telegram.Poller
	)

	message := func(chatID int64, text string) tgbotapi.Update {
		return tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}}
	}

	command := func(chatID int64, text string) tgbotapi.Update {
		upd := message(chatID, text)
		cmdLen := strings.IndexByte(text+" ", ' ')
		upd.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
		return upd
	}

	BeforeEach(func() {
		ctx = context.Background()
		files = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg:" + strings.TrimPrefix(r.URL.Path, "/")))
		}))

		bot = &fakeBot{fileURL: files.URL, updates: make(chan tgbotapi.Update, 4)}
		handler = &recordingHandler{}
		replies = &replySink{}
		store = &memoryStore{}
		verifiedChat := int64(555)
		pendingChat := int64(556)
		chats = chatMap{
			555: {ID: 1, ChatID: &verifiedChat, Status: donor.StatusVerified},
			556: {ID: 2, ChatID: &pendingChat, Status: donor.StatusPendingAdmin},
		}

		gate = periodGate{}

		source, err := clock.NewSource(clock.NewFakeClock(time.Date(2024, time.September, 28, 8, 30, 0, 0, time.UTC)), "Asia/Tehran")
		Expect(err).NotTo(HaveOccurred())

		poller = telegram.NewPoller(bot, handler, replies, chats, gate, store, source,
			telegram.PollerConfig{AdminChatID: adminChat}, testLogger())
	})

	AfterEach(func() {
		files.Close()
	})

	It("treats text from an unverified chat as a PIN", func() {
		poller.HandleUpdate(ctx, message(777, " 42 "))
		Expect(handler.events).To(Equal([]inbound.Event{inbound.PinEntered{ChatID: 777, PIN: "42"}}))
		Expect(replies.sent).To(HaveLen(1))
	})

	It("answers free text from verified donors and the admin with help", func() {
		poller.HandleUpdate(ctx, message(555, "hello"))
		poller.HandleUpdate(ctx, message(adminChat, "hello"))
		Expect(handler.events).To(Equal([]inbound.Event{
			inbound.CommandInvoked{ChatID: 555, Command: "help"},
			inbound.CommandInvoked{ChatID: adminChat, Command: "help"},
		}))
	})

	It("splits commands and their arguments", func() {
		poller.HandleUpdate(ctx, command(adminChat, "/report@CharityBot 1403/06"))
		Expect(handler.events).To(Equal([]inbound.Event{
			inbound.CommandInvoked{ChatID: adminChat, Command: "report", Args: []string{"1403/06"}},
		}))
	})

	It("stores a verified donor's photo before submitting it", func() {
		upd := message(555, "")
		upd.Message.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
		poller.HandleUpdate(ctx, upd)

		Expect(store.keys).To(HaveLen(1))
		Expect(store.keys[0]).To(HavePrefix("1/1403-07/"))
		Expect(store.keys[0]).To(HaveSuffix(".jpg"))
		Expect(bytes.Equal(store.bodies[0], []byte("jpeg:large"))).To(BeTrue())

		Expect(handler.events).To(Equal([]inbound.Event{inbound.ReceiptUploaded{
			ChatID:      555,
			ArtifactRef: "mem://" + store.keys[0],
			FileID:      "large",
			Period:      jalali.Period{Year: 1403, Month: 7},
		}}))
	})

	It("does not store uploads from chats that are not verified", func() {
		upd := message(556, "")
		upd.Message.Document = &tgbotapi.Document{FileID: "doc", FileName: "r.PNG", MimeType: "image/png"}
		poller.HandleUpdate(ctx, upd)

		Expect(store.keys).To(BeEmpty())
		Expect(handler.events).To(Equal([]inbound.Event{inbound.ReceiptUploaded{
			ChatID: 556,
			FileID: "doc",
			Period: jalali.Period{Year: 1403, Month: 7},
		}}))
	})

	It("does not store a receipt for a period that takes no new one", func() {
		gate[jalali.Period{Year: 1403, Month: 7}] = true
		upd := message(555, "")
		upd.Message.Photo = []tgbotapi.PhotoSize{{FileID: "again"}}
		poller.HandleUpdate(ctx, upd)

		Expect(store.keys).To(BeEmpty())
		Expect(handler.events).To(Equal([]inbound.Event{inbound.ReceiptUploaded{
			ChatID: 555,
			FileID: "again",
			Period: jalali.Period{Year: 1403, Month: 7},
		}}))
	})

	It("turns decision buttons into admin decisions and answers the callback", func() {
		poller.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: adminChat},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: adminChat}},
			Data:    "deny_12",
		}})
		Expect(bot.requests).To(HaveLen(1))
		Expect(handler.events).To(Equal([]inbound.Event{inbound.AdminDecision{ChatID: adminChat, ApprovalID: 12, Approve: false}}))
	})

	It("ignores callbacks it does not understand", func() {
		poller.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-2",
			From: &tgbotapi.User{ID: adminChat},
			Data: "main",
		}})
		Expect(handler.events).To(BeEmpty())
		Expect(replies.sent).To(BeEmpty())
	})

	It("stops receiving updates when the context ends", func() {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- poller.Run(runCtx) }()

		bot.updates <- message(777, "42")
		Eventually(replies.Count).Should(Equal(1))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
		Expect(bot.stopCalls).To(Equal(1))
	})
})
