package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/approval"
	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/notification"
	"github.com/frahmantamala/charity-reminder/internal/payment"
	"github.com/frahmantamala/charity-reminder/internal/report"
	"github.com/frahmantamala/charity-reminder/internal/scheduler"
	"github.com/frahmantamala/charity-reminder/pkg/logger"
)

type DonorService interface {
	EnterPIN(ctx context.Context, chatID int64, rawPIN string) (*donor.VerifyResult, error)
	DecideVerification(ctx context.Context, approvalID int64, approve bool) (*donor.Donor, error)
	Reset(ctx context.Context, donorID int64) (*donor.Donor, error)
	GetByChatID(ctx context.Context, chatID int64) (*donor.Donor, error)
	ListVerified(ctx context.Context) ([]*donor.Donor, error)
}

type PaymentService interface {
	SubmitReceipt(ctx context.Context, donorID int64, period jalali.Period, receipt payment.Receipt) (*payment.Payment, error)
	Decide(ctx context.Context, approvalID int64, outcome payment.Status) (*payment.Payment, error)
	History(ctx context.Context, donorID int64) ([]*payment.Payment, error)
}

type ApprovalReader interface {
	Get(ctx context.Context, id int64) (*approval.Approval, error)
}

type ReportService interface {
	Summarize(ctx context.Context, year, month int) (*report.Summary, error)
}

type TriggerRunner interface {
	Trigger(ctx context.Context, kind scheduler.Kind) error
}

type BatchSender interface {
	SendBatch(ctx context.Context, msgs []notification.Message) notification.BatchResult
}

type Deps struct {
	Donors      DonorService
	Payments    PaymentService
	Approvals   ApprovalReader
	Reports     ReportService
	Triggers    TriggerRunner
	Delivery    BatchSender
	Clock       *clock.Source
	Catalog     notification.Catalog
	AdminChatID int64
	Logger      *slog.Logger
}

// Dispatcher answers inbound events with the replies to send back.
type Dispatcher struct {
	Deps
}

func NewDispatcher(deps Deps) *Dispatcher {
	return &Dispatcher{Deps: deps}
}

// Handle routes e to its handler. Business rejections come back as a denial
// reply with a nil error. Any other failure is logged and answered with an
// apology, and the error is returned as well.
func (d *Dispatcher) Handle(ctx context.Context, e Event) ([]notification.Message, error) {
	var (
		chatID  int64
		replies []notification.Message
		err     error
	)

	switch ev := e.(type) {
	case PinEntered:
		chatID = ev.ChatID
		replies, err = d.pinEntered(ctx, ev)
	case ReceiptUploaded:
		chatID = ev.ChatID
		replies, err = d.receiptUploaded(ctx, ev)
	case AdminDecision:
		chatID = ev.ChatID
		replies, err = d.adminDecision(ctx, ev)
	case CommandInvoked:
		chatID = ev.ChatID
		replies, err = d.commandInvoked(ctx, ev)
	default:
		return nil, fmt.Errorf("unhandled inbound event %T", e)
	}

	if err == nil {
		return replies, nil
	}
	lg := logger.FromOr(ctx, d.Logger)
	if isDenial(err) {
		lg.Info("inbound request denied", "chat_id", chatID, "event", fmt.Sprintf("%T", e), "error", err)
		return []notification.Message{d.reply(chatID, d.Catalog.Denial(err))}, nil
	}
	lg.Error("inbound request failed", "chat_id", chatID, "event", fmt.Sprintf("%T", e), "error", err)
	return []notification.Message{d.reply(chatID, d.Catalog.Apology())}, err
}

func isDenial(err error) bool {
	appErr, ok := internal.IsAppError(err)
	return ok && appErr.StatusCode < 500
}

func (d *Dispatcher) reply(chatID int64, text string) notification.Message {
	return notification.Message{ChatID: chatID, Text: text}
}

func (d *Dispatcher) isAdmin(chatID int64) bool {
	return d.AdminChatID != 0 && chatID == d.AdminChatID
}

func (d *Dispatcher) pinEntered(ctx context.Context, ev PinEntered) ([]notification.Message, error) {
	res, err := d.Donors.EnterPIN(ctx, ev.ChatID, ev.PIN)
	if err != nil {
		return nil, err
	}

	var text string
	switch res.Outcome {
	case donor.OutcomeRejected:
		text = d.Catalog.InvalidPIN()
	case donor.OutcomePendingAdmin:
		text = d.Catalog.VerificationRequested(res.Donor.FullName)
	case donor.OutcomeAlreadyPending:
		text = d.Catalog.AwaitingVerification()
	case donor.OutcomeAlreadyVerified:
		text = d.Catalog.AlreadyVerified(res.Donor.FullName)
	default:
		return nil, fmt.Errorf("unexpected verification outcome %q", res.Outcome)
	}
	return []notification.Message{d.reply(ev.ChatID, text)}, nil
}

func (d *Dispatcher) receiptUploaded(ctx context.Context, ev ReceiptUploaded) ([]notification.Message, error) {
	dn, err := d.verifiedDonor(ctx, ev.ChatID)
	if err != nil {
		return nil, err
	}

	period := ev.Period
	if period == (jalali.Period{}) {
		period = d.Clock.Period()
	}

	p, err := d.Payments.SubmitReceipt(ctx, dn.ID, period, payment.Receipt{Ref: ev.ArtifactRef, FileID: ev.FileID})
	if err != nil {
		return nil, err
	}
	return []notification.Message{d.reply(ev.ChatID, d.Catalog.ReceiptReceived(p.Period))}, nil
}

func (d *Dispatcher) adminDecision(ctx context.Context, ev AdminDecision) ([]notification.Message, error) {
	if !d.isAdmin(ev.ChatID) {
		return nil, fmt.Errorf("decision from chat %d: %w", ev.ChatID, internal.ErrAdminOnly)
	}

	a, err := d.Approvals.Get(ctx, ev.ApprovalID)
	if err != nil {
		return nil, err
	}

	var text string
	switch a.Kind {
	case approval.KindPayment:
		outcome := payment.StatusFailed
		if ev.Approve {
			outcome = payment.StatusApproved
		}
		if _, err := d.Payments.Decide(ctx, ev.ApprovalID, outcome); err != nil {
			return nil, err
		}
		text = d.Catalog.DecisionRecorded(ev.Approve)
	case approval.KindDonor:
		if _, err := d.Donors.DecideVerification(ctx, ev.ApprovalID, ev.Approve); err != nil {
			return nil, err
		}
		text = d.Catalog.VerificationDecisionRecorded(ev.Approve)
	default:
		return nil, fmt.Errorf("approval %d has unknown kind %q", a.ID, a.Kind)
	}
	return []notification.Message{d.reply(ev.ChatID, text)}, nil
}

func (d *Dispatcher) verifiedDonor(ctx context.Context, chatID int64) (*donor.Donor, error) {
	dn, err := d.Donors.GetByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, internal.ErrDonorNotFound) {
			return nil, fmt.Errorf("chat %d: %w", chatID, internal.ErrNotVerified)
		}
		return nil, err
	}
	if !dn.IsVerified() {
		return nil, fmt.Errorf("chat %d: %w", chatID, internal.ErrNotVerified)
	}
	return dn, nil
}

// NormalizeCommand strips the slash and any "@botname" suffix.
func NormalizeCommand(cmd string) string {
	cmd = strings.TrimPrefix(strings.TrimSpace(cmd), "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

func (d *Dispatcher) commandInvoked(ctx context.Context, ev CommandInvoked) ([]notification.Message, error) {
	admin := d.isAdmin(ev.ChatID)
	cmd := NormalizeCommand(ev.Command)

	switch cmd {
	case "start":
		return d.start(ctx, ev.ChatID, admin)
	case "help", "menu":
		return d.text(ev.ChatID, d.Catalog.Help(admin))
	case "card":
		return d.text(ev.ChatID, d.Catalog.Card())
	case "link", "amount", "history", "upload":
		return d.donorCommand(ctx, ev.ChatID, cmd)
	case "report", "broadcast", "trigger", "reset":
		if !admin {
			return nil, fmt.Errorf("command %q from chat %d: %w", cmd, ev.ChatID, internal.ErrAdminOnly)
		}
		return d.adminCommand(ctx, ev.ChatID, cmd, ev.Args)
	default:
		return d.text(ev.ChatID, d.Catalog.UnknownCommand())
	}
}

func (d *Dispatcher) text(chatID int64, text string) ([]notification.Message, error) {
	return []notification.Message{d.reply(chatID, text)}, nil
}

func (d *Dispatcher) start(ctx context.Context, chatID int64, admin bool) ([]notification.Message, error) {
	dn, err := d.Donors.GetByChatID(ctx, chatID)
	switch {
	case errors.Is(err, internal.ErrDonorNotFound):
		if admin {
			return d.text(chatID, d.Catalog.Help(true))
		}
		return d.text(chatID, d.Catalog.PINPrompt())
	case err != nil:
		return nil, err
	}

	switch dn.Status {
	case donor.StatusVerified:
		return d.text(chatID, d.Catalog.Help(admin))
	case donor.StatusPendingAdmin:
		return d.text(chatID, d.Catalog.AwaitingVerification())
	default:
		return d.text(chatID, d.Catalog.PINPrompt())
	}
}

func (d *Dispatcher) donorCommand(ctx context.Context, chatID int64, cmd string) ([]notification.Message, error) {
	dn, err := d.verifiedDonor(ctx, chatID)
	if err != nil {
		return nil, err
	}

	switch cmd {
	case "link":
		return d.text(chatID, d.Catalog.Link(dn))
	case "amount":
		return d.text(chatID, d.Catalog.Amount(dn))
	case "upload":
		return d.text(chatID, d.Catalog.UploadPrompt(d.Clock.Period()))
	default:
		history, err := d.Payments.History(ctx, dn.ID)
		if err != nil {
			return nil, err
		}
		return d.text(chatID, d.Catalog.History(history))
	}
}

func (d *Dispatcher) adminCommand(ctx context.Context, chatID int64, cmd string, args []string) ([]notification.Message, error) {
	switch cmd {
	case "report":
		period := d.Clock.Period()
		if len(args) > 0 {
			p, err := jalali.ParsePeriod(args[0])
			if err != nil {
				return nil, internal.NewInvalidCalendarDateError(err)
			}
			period = p
		}
		summary, err := d.Reports.Summarize(ctx, period.Year, period.Month)
		if err != nil {
			return nil, err
		}
		return d.text(chatID, report.FormatText(*summary))

	case "broadcast":
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return d.text(chatID, d.Catalog.BroadcastUsage())
		}
		donors, err := d.Donors.ListVerified(ctx)
		if err != nil {
			return nil, err
		}
		msgs := make([]notification.Message, 0, len(donors))
		for _, dn := range donors {
			if dn.ChatID != nil {
				msgs = append(msgs, d.reply(*dn.ChatID, text))
			}
		}
		result := d.Delivery.SendBatch(ctx, msgs)
		d.Logger.Info("broadcast delivered", "recipients", len(msgs), "sent", result.Sent, "failed", result.Failed)
		return d.text(chatID, d.Catalog.BroadcastDone(result.Sent, result.Failed))

	case "trigger":
		if len(args) == 0 {
			return d.text(chatID, d.Catalog.TriggerUsage())
		}
		kind, err := scheduler.ParseKind(args[0])
		if err != nil {
			return nil, err
		}
		if err := d.Triggers.Trigger(ctx, kind); err != nil {
			return nil, err
		}
		return d.text(chatID, d.Catalog.TriggerDone(string(kind)))

	default:
		if len(args) == 0 {
			return d.text(chatID, d.Catalog.ResetUsage())
		}
		donorID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || donorID <= 0 {
			return d.text(chatID, d.Catalog.ResetUsage())
		}
		dn, err := d.Donors.Reset(ctx, donorID)
		if err != nil {
			return nil, err
		}
		return d.text(chatID, d.Catalog.ResetDone(dn.FullName))
	}
}
