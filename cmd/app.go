package cmd

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/approval"
	approvalPostgres "github.com/frahmantamala/charity-reminder/internal/approval/postgres"
	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/core/events"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	donorPostgres "github.com/frahmantamala/charity-reminder/internal/donor/postgres"
	"github.com/frahmantamala/charity-reminder/internal/inbound"
	"github.com/frahmantamala/charity-reminder/internal/notification"
	"github.com/frahmantamala/charity-reminder/internal/observability"
	"github.com/frahmantamala/charity-reminder/internal/payment"
	paymentPostgres "github.com/frahmantamala/charity-reminder/internal/payment/postgres"
	"github.com/frahmantamala/charity-reminder/internal/report"
	reportPostgres "github.com/frahmantamala/charity-reminder/internal/report/postgres"
	"github.com/frahmantamala/charity-reminder/internal/scheduler"
	schedulerPostgres "github.com/frahmantamala/charity-reminder/internal/scheduler/postgres"
	"github.com/frahmantamala/charity-reminder/internal/storage"
	"github.com/frahmantamala/charity-reminder/internal/telegram"
)

// app is the wired service graph shared by the long-running commands.
type app struct {
	cfg     *internal.Config
	logger  *slog.Logger
	db      *database
	metrics *observability.Metrics
	source  *clock.Source
	bus     *events.EventBus
	catalog notification.Catalog

	donors    *donor.Service
	payments  *payment.Service
	approvals *approval.Service
	reports   *report.Service

	bot       *tgbotapi.BotAPI
	delivery  *notification.Dispatcher
	scheduler *scheduler.Scheduler
	inbound   *inbound.Dispatcher
	receipts  storage.Store
}

func newApp(ctx context.Context, cfg *internal.Config, lg *slog.Logger) (*app, error) {
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  lg,
		db:      db,
		metrics: observability.NewMetrics(),
		bus:     events.NewEventBus(lg),
		catalog: notification.Catalog{
			CardNumber:    cfg.Telegram.CardNumber,
			CardHolder:    cfg.Telegram.CardHolder,
			AdminUsername: cfg.Telegram.AdminUsername,
		},
	}

	a.source, err = clock.NewSource(clock.SystemClock{}, cfg.Scheduler.Timezone)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a.donors = donor.NewService(donorPostgres.NewDonorRepository(db.Gorm), a.bus, a.source, a.metrics, lg)
	a.payments = payment.NewService(
		paymentPostgres.NewPaymentRepository(db.Gorm),
		a.donors,
		payment.Policy{AllowResubmitAfterFailure: cfg.Payment.AllowResubmitAfterFailure},
		a.bus, a.source, a.metrics, lg)
	a.approvals = approval.NewService(approvalPostgres.NewApprovalRepository(db.Gorm), lg)
	a.reports = report.NewService(reportPostgres.NewReportRepository(db.SQLX), lg)

	sender, err := a.newSender()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a.delivery = notification.NewDispatcher(sender, notification.Config{
		MaxWorkers:   cfg.Delivery.MaxWorkers,
		JobQueueSize: cfg.Delivery.JobQueueSize,
		SendTimeout:  cfg.Delivery.SendTimeout,
	}, a.metrics, lg)

	notification.NewSubscribers(a.donors, a.delivery, a.catalog, cfg.Telegram.AdminChatID, lg).Register(a.bus)

	actions := scheduler.NewActions(a.donors, a.payments, a.reports,
		[]report.Renderer{report.PDFRenderer{}, report.XLSXRenderer{}},
		a.delivery, a.catalog, cfg.Telegram.AdminChatID, lg)
	a.scheduler, err = scheduler.New(a.source,
		schedulerPostgres.NewMarkerRepository(db.Gorm),
		scheduler.TriggersFromConfig(cfg.Scheduler),
		actions.Registry(),
		cfg.Scheduler.PollInterval(),
		a.metrics, lg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	a.inbound = inbound.NewDispatcher(inbound.Deps{
		Donors:      a.donors,
		Payments:    a.payments,
		Approvals:   a.approvals,
		Reports:     a.reports,
		Triggers:    a.scheduler,
		Delivery:    a.delivery,
		Clock:       a.source,
		Catalog:     a.catalog,
		AdminChatID: cfg.Telegram.AdminChatID,
		Logger:      lg,
	})

	a.receipts, err = newReceiptStore(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// newSender returns the Telegram client, or a sender that only logs when no
// bot token is configured.
func (a *app) newSender() (notification.Sender, error) {
	if a.cfg.Telegram.BotToken == "" {
		a.logger.Warn("telegram bot token not configured; messages will only be logged")
		return notification.SenderFunc(func(ctx context.Context, msg notification.Message) error {
			a.logger.InfoContext(ctx, "message not delivered", "chat_id", msg.ChatID, "text", msg.Text)
			return nil
		}), nil
	}

	bot, err := telegram.NewBot(a.cfg.Telegram.BotToken)
	if err != nil {
		return nil, err
	}
	a.bot = bot
	a.logger.Info("telegram bot authorized", "username", bot.Self.UserName)
	return telegram.NewClient(bot), nil
}

func newReceiptStore(ctx context.Context, cfg internal.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "s3":
		return storage.NewS3StoreFromEnv(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return storage.NewLocalStore(cfg.LocalDir)
	}
}

// poller is nil when no bot is configured.
func (a *app) poller() *telegram.Poller {
	if a.bot == nil {
		return nil
	}
	return telegram.NewPoller(a.bot, a.inbound, a.delivery, a.donors, a.payments, a.receipts, a.source,
		telegram.PollerConfig{
			UpdateTimeout: a.cfg.Telegram.UpdateTimeout,
			AdminChatID:   a.cfg.Telegram.AdminChatID,
		}, a.logger)
}

// Close drains event handlers and pending deliveries before closing the pool.
func (a *app) Close() {
	a.bus.Wait()
	if a.delivery != nil {
		a.delivery.Stop()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("database close error", "error", err)
	}
}
