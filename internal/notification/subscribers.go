package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/charity-reminder/internal/core/events"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/payment"
)

type DonorReader interface {
	GetByID(ctx context.Context, id int64) (*donor.Donor, error)
}

// Subscribers turns domain events into admin review requests and donor
// notices.
type Subscribers struct {
	donors      DonorReader
	sender      Sender
	catalog     Catalog
	adminChatID int64
	logger      *slog.Logger
}

func NewSubscribers(donors DonorReader, sender Sender, catalog Catalog, adminChatID int64, logger *slog.Logger) *Subscribers {
	return &Subscribers{
		donors:      donors,
		sender:      sender,
		catalog:     catalog,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

func (s *Subscribers) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypePaymentSubmitted, s.HandlePaymentSubmitted)
	bus.Subscribe(events.EventTypePaymentDecided, s.HandlePaymentDecided)
	bus.Subscribe(events.EventTypeDonorVerificationRequested, s.HandleVerificationRequested)
	bus.Subscribe(events.EventTypeDonorVerificationDecided, s.HandleVerificationDecided)
}

func (s *Subscribers) HandlePaymentSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentSubmittedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}
	if s.adminChatID == 0 {
		s.logger.Warn("admin chat not configured, payment review not sent", "approval_id", e.ApprovalID)
		return nil
	}

	d, err := s.donors.GetByID(ctx, e.DonorID)
	if err != nil {
		return fmt.Errorf("load donor %d: %w", e.DonorID, err)
	}

	period := jalali.Period{Year: e.JalaliYear, Month: e.JalaliMonth}
	msg := s.catalog.AdminPaymentReview(e.ApprovalID, d, period, e.FileID, e.Resubmitted)
	msg.ChatID = s.adminChatID
	return s.sender.Send(ctx, msg)
}

func (s *Subscribers) HandlePaymentDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentDecidedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	d, err := s.donors.GetByID(ctx, e.DonorID)
	if err != nil {
		return fmt.Errorf("load donor %d: %w", e.DonorID, err)
	}
	if d.ChatID == nil {
		s.logger.Info("donor has no chat, decision notice skipped", "donor_id", d.ID)
		return nil
	}

	period := jalali.Period{Year: e.JalaliYear, Month: e.JalaliMonth}
	text := s.catalog.PaymentApproved(period)
	if payment.Status(e.Status) == payment.StatusFailed {
		text = s.catalog.PaymentFailed(period)
	}
	return s.sender.Send(ctx, Message{ChatID: *d.ChatID, Text: text})
}

func (s *Subscribers) HandleVerificationRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.DonorVerificationRequestedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}
	if s.adminChatID == 0 {
		s.logger.Warn("admin chat not configured, verification review not sent", "approval_id", e.ApprovalID)
		return nil
	}

	msg := s.catalog.AdminVerificationReview(e.ApprovalID, e.DonorID, e.ChatID, e.FullName)
	msg.ChatID = s.adminChatID
	return s.sender.Send(ctx, msg)
}

func (s *Subscribers) HandleVerificationDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.DonorVerificationDecidedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}
	if e.ChatID == 0 {
		return nil
	}

	if !e.Approved {
		return s.sender.Send(ctx, Message{ChatID: e.ChatID, Text: s.catalog.VerificationDenied()})
	}

	d, err := s.donors.GetByID(ctx, e.DonorID)
	if err != nil {
		return fmt.Errorf("load donor %d: %w", e.DonorID, err)
	}
	return s.sender.Send(ctx, Message{ChatID: e.ChatID, Text: s.catalog.VerificationApproved(d)})
}
