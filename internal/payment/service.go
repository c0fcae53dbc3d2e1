package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/approval"
	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/core/events"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/observability"
)

// DonorReader is the slice of the donor registry payments need.
type DonorReader interface {
	GetByID(ctx context.Context, id int64) (*donor.Donor, error)
}

// Service is the payment state machine:
//
//	missing -> pending -> approved | failed
//	failed  -> pending   (only when Policy.AllowResubmitAfterFailure)
//
// Every pending payment has exactly one open payment approval, and every
// transition happens in one transaction together with its approval change.
type Service struct {
	repo      Repository
	donors    DonorReader
	policy    Policy
	publisher events.Publisher
	clock     clock.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func NewService(repo Repository, donors DonorReader, policy Policy, publisher events.Publisher, clk clock.Clock, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		repo:      repo,
		donors:    donors,
		policy:    policy,
		publisher: publisher,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// SubmitReceipt records a receipt for period and opens an admin approval for it.
func (s *Service) SubmitReceipt(ctx context.Context, donorID int64, period jalali.Period, receipt Receipt) (*Payment, error) {
	if err := period.Validate(); err != nil {
		return nil, internal.NewInvalidCalendarDateError(err)
	}

	d, err := s.donors.GetByID(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if !d.IsVerified() {
		return nil, fmt.Errorf("donor %d: %w", donorID, internal.ErrNotVerified)
	}

	now := s.clock.Now()
	var (
		submitted   *Payment
		resubmitted bool
	)
	err = s.repo.InTx(ctx, func(tx Repository) error {
		p, err := tx.GetForUpdate(ctx, donorID, period)
		switch {
		case errors.Is(err, internal.ErrPaymentNotFound):
			p = &Payment{DonorID: donorID, Period: period, Status: StatusMissing}
		case err != nil:
			return err
		}

		from := p.Status
		switch from {
		case StatusMissing:
		case StatusFailed:
			if !s.policy.AllowResubmitAfterFailure {
				return fmt.Errorf("payment %s for donor %d was rejected: %w", period, donorID, internal.ErrDuplicateSubmission)
			}
			resubmitted = true
		default:
			return fmt.Errorf("payment %s for donor %d is %s: %w", period, donorID, from, internal.ErrDuplicateSubmission)
		}
		if strings.TrimSpace(receipt.Ref) == "" {
			return internal.NewValidationFieldError("receipt_ref", "receipt_ref is required", internal.ErrCodeValidationFailed)
		}

		p.Status = StatusPending
		p.ReceiptRef = receipt.Ref
		p.ReceiptFileID = receipt.FileID
		p.SubmittedAt = now
		p.DecidedAt = nil

		if from == StatusMissing {
			err = tx.Create(ctx, p)
		} else {
			err = tx.Update(ctx, p)
		}
		if err != nil {
			return err
		}

		paymentID := p.ID
		a := &approval.Approval{Kind: approval.KindPayment, DonorID: donorID, PaymentID: &paymentID, CreatedAt: now}
		if err := tx.Approvals().Open(ctx, a); err != nil {
			return err
		}
		p.ApprovalID = a.ID

		if err := tx.RecordTransition(ctx, &Transition{PaymentID: p.ID, From: from, To: StatusPending, ApprovalID: &a.ID, CreatedAt: now}); err != nil {
			return err
		}

		submitted = p
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "receipt submission failed", "donor_id", donorID, "period", period.String())
	}

	s.metrics.PaymentTransition(string(StatusPending))
	s.logger.Info("receipt submitted",
		"payment_id", submitted.ID,
		"donor_id", donorID,
		"period", period.String(),
		"approval_id", submitted.ApprovalID,
		"resubmitted", resubmitted)
	s.publish(ctx, events.NewPaymentSubmittedEvent(
		submitted.ID, submitted.ApprovalID, donorID,
		period.Year, period.Month,
		submitted.ReceiptRef, submitted.ReceiptFileID, resubmitted))

	return submitted, nil
}

// Decide answers a payment approval with StatusApproved or StatusFailed. An
// approval that was already answered yields ErrStaleApproval and changes nothing.
func (s *Service) Decide(ctx context.Context, approvalID int64, outcome Status) (*Payment, error) {
	if !outcome.IsDecided() {
		return nil, fmt.Errorf("outcome %q: %w", outcome, internal.ErrInvalidOutcome)
	}

	now := s.clock.Now()
	var decided *Payment
	err := s.repo.InTx(ctx, func(tx Repository) error {
		a, err := tx.Approvals().Close(ctx, approvalID, approval.KindPayment, string(outcome), now)
		if err != nil {
			return err
		}
		if a.PaymentID == nil {
			return fmt.Errorf("approval %d has no payment: %w", approvalID, internal.ErrPaymentNotFound)
		}

		p, err := tx.GetByIDForUpdate(ctx, *a.PaymentID)
		if err != nil {
			return err
		}
		if p.Status != StatusPending {
			return fmt.Errorf("payment %d is already %s: %w", p.ID, p.Status, internal.ErrStaleApproval)
		}

		p.Status = outcome
		p.DecidedAt = &now
		if err := tx.Update(ctx, p); err != nil {
			return err
		}
		if err := tx.RecordTransition(ctx, &Transition{PaymentID: p.ID, From: StatusPending, To: outcome, ApprovalID: &a.ID, CreatedAt: now}); err != nil {
			return err
		}

		p.ApprovalID = a.ID
		decided = p
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "payment decision failed", "approval_id", approvalID, "outcome", outcome)
	}

	s.metrics.PaymentTransition(string(outcome))
	s.logger.Info("payment decided",
		"payment_id", decided.ID,
		"donor_id", decided.DonorID,
		"period", decided.Period.String(),
		"approval_id", approvalID,
		"status", outcome)
	s.publish(ctx, events.NewPaymentDecidedEvent(
		decided.ID, approvalID, decided.DonorID,
		decided.Period.Year, decided.Period.Month, string(outcome)))

	return decided, nil
}

// StatusFor returns StatusMissing when the donor has no record for period.
func (s *Service) StatusFor(ctx context.Context, donorID int64, period jalali.Period) (Status, error) {
	p, err := s.repo.Get(ctx, donorID, period)
	if err != nil {
		if errors.Is(err, internal.ErrPaymentNotFound) {
			return StatusMissing, nil
		}
		return "", err
	}
	return p.Status, nil
}

// AcceptsReceipt reports whether SubmitReceipt would take a new receipt for
// period, so callers can skip storing uploads that are bound to be refused.
func (s *Service) AcceptsReceipt(ctx context.Context, donorID int64, period jalali.Period) (bool, error) {
	status, err := s.StatusFor(ctx, donorID, period)
	if err != nil {
		return false, err
	}
	switch status {
	case StatusMissing:
		return true, nil
	case StatusFailed:
		return s.policy.AllowResubmitAfterFailure, nil
	}
	return false, nil
}

// StatusesForPeriod returns a status for every donor in donorIDs, with
// StatusMissing filled in for donors that have not submitted.
func (s *Service) StatusesForPeriod(ctx context.Context, period jalali.Period, donorIDs []int64) (map[int64]Status, error) {
	if err := period.Validate(); err != nil {
		return nil, internal.NewInvalidCalendarDateError(err)
	}

	rows, err := s.repo.ListByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	statuses := make(map[int64]Status, len(donorIDs))
	for _, id := range donorIDs {
		statuses[id] = StatusMissing
	}
	for _, p := range rows {
		if _, wanted := statuses[p.DonorID]; wanted {
			statuses[p.DonorID] = p.Status
		}
	}
	return statuses, nil
}

// History lists a donor's payments, newest period first.
func (s *Service) History(ctx context.Context, donorID int64) ([]*Payment, error) {
	return s.repo.ListByDonor(ctx, donorID)
}

func (s *Service) Transitions(ctx context.Context, paymentID int64) ([]*Transition, error) {
	return s.repo.Transitions(ctx, paymentID)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

func (s *Service) fail(err error, msg string, args ...any) error {
	if internal.IsRejection(err) {
		s.metrics.Rejection(err)
		s.logger.Warn(msg, append(args, "error", err)...)
		return err
	}
	if _, ok := internal.IsAppError(err); ok {
		s.logger.Warn(msg, append(args, "error", err)...)
		return err
	}
	s.logger.Error(msg, append(args, "error", err)...)
	return internal.NewUnavailableError(msg, err)
}
