package donor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/approval"
	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/core/events"
	"github.com/frahmantamala/charity-reminder/internal/observability"
)

// VerifyOutcome is the answer to a PIN entry.
type VerifyOutcome string

const (
	// OutcomeRejected: no donor has this PIN. Nothing changed.
	OutcomeRejected VerifyOutcome = "rejected"
	// OutcomePendingAdmin: the chat is now bound and an admin approval is open.
	OutcomePendingAdmin VerifyOutcome = "pending_admin"
	// OutcomeAlreadyPending: the same chat entered the PIN again while waiting.
	OutcomeAlreadyPending VerifyOutcome = "already_pending"
	// OutcomeAlreadyVerified: the same chat entered the PIN of its verified donor.
	OutcomeAlreadyVerified VerifyOutcome = "already_verified"
)

type VerifyResult struct {
	Outcome    VerifyOutcome
	Donor      *Donor
	ApprovalID int64
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	clock     clock.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, clk clock.Clock, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
	}
}

// EnterPIN runs the first step of verification for chatID. A wrong PIN is an
// OutcomeRejected result, not an error. A chat identity binds once: a PIN whose
// donor is bound to another chat, or a chat already bound to another donor,
// fails with ErrAlreadyBound.
func (s *Service) EnterPIN(ctx context.Context, chatID int64, rawPIN string) (*VerifyResult, error) {
	pin := NormalizePIN(rawPIN)
	if pin == "" {
		return &VerifyResult{Outcome: OutcomeRejected}, nil
	}

	var result VerifyResult
	err := s.repo.InTx(ctx, func(tx Repository) error {
		d, err := tx.FindByPIN(ctx, pin)
		if err != nil {
			if errors.Is(err, internal.ErrDonorNotFound) {
				result = VerifyResult{Outcome: OutcomeRejected}
				return nil
			}
			return err
		}

		if d.ChatID != nil && !d.BoundTo(chatID) {
			return fmt.Errorf("donor %d: %w", d.ID, internal.ErrAlreadyBound)
		}

		bound, err := tx.GetByChatID(ctx, chatID)
		switch {
		case err == nil && bound.ID != d.ID:
			return fmt.Errorf("chat %d belongs to donor %d: %w", chatID, bound.ID, internal.ErrAlreadyBound)
		case err != nil && !errors.Is(err, internal.ErrDonorNotFound):
			return err
		}

		switch d.Status {
		case StatusVerified:
			result = VerifyResult{Outcome: OutcomeAlreadyVerified, Donor: d}
			return nil
		case StatusPendingAdmin:
			result = VerifyResult{Outcome: OutcomeAlreadyPending, Donor: d}
			return nil
		}

		if err := tx.UpdateVerification(ctx, d.ID, StatusPendingAdmin, &chatID, nil); err != nil {
			return err
		}
		a := &approval.Approval{Kind: approval.KindDonor, DonorID: d.ID, CreatedAt: s.clock.Now()}
		if err := tx.Approvals().Open(ctx, a); err != nil {
			return err
		}

		d.Status = StatusPendingAdmin
		d.ChatID = &chatID
		result = VerifyResult{Outcome: OutcomePendingAdmin, Donor: d, ApprovalID: a.ID}
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "pin entry failed", "chat_id", chatID)
	}

	switch result.Outcome {
	case OutcomeRejected:
		s.logger.Info("pin rejected", "chat_id", chatID)
	case OutcomePendingAdmin:
		s.metrics.DonorTransition(string(StatusPendingAdmin))
		s.logger.Info("donor awaiting admin verification",
			"donor_id", result.Donor.ID,
			"chat_id", chatID,
			"approval_id", result.ApprovalID)
		s.publish(ctx, events.NewDonorVerificationRequestedEvent(result.Donor.ID, result.ApprovalID, chatID, result.Donor.FullName))
	}

	return &result, nil
}

// DecideVerification answers a donor approval. Approval verifies the donor;
// denial resets it to unverified and releases the chat binding.
func (s *Service) DecideVerification(ctx context.Context, approvalID int64, approve bool) (*Donor, error) {
	outcome := approval.OutcomeApproved
	if !approve {
		outcome = approval.OutcomeDenied
	}
	now := s.clock.Now()

	var (
		decided *Donor
		chatID  int64
	)
	err := s.repo.InTx(ctx, func(tx Repository) error {
		a, err := tx.Approvals().Close(ctx, approvalID, approval.KindDonor, outcome, now)
		if err != nil {
			return err
		}

		d, err := tx.GetByIDForUpdate(ctx, a.DonorID)
		if err != nil {
			return err
		}
		if d.ChatID != nil {
			chatID = *d.ChatID
		}

		if approve {
			if err := tx.UpdateVerification(ctx, d.ID, StatusVerified, d.ChatID, &now); err != nil {
				return err
			}
			d.Status = StatusVerified
			d.VerifiedAt = &now
		} else {
			if err := tx.UpdateVerification(ctx, d.ID, StatusUnverified, nil, nil); err != nil {
				return err
			}
			d.Status = StatusUnverified
			d.ChatID = nil
			d.VerifiedAt = nil
		}
		decided = d
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "verification decision failed", "approval_id", approvalID)
	}

	s.metrics.DonorTransition(string(decided.Status))
	s.logger.Info("donor verification decided",
		"donor_id", decided.ID,
		"approval_id", approvalID,
		"status", decided.Status)
	s.publish(ctx, events.NewDonorVerificationDecidedEvent(decided.ID, approvalID, chatID, approve))

	return decided, nil
}

// Reset returns a donor to unverified, unbinds its chat and closes any open
// verification approval.
func (s *Service) Reset(ctx context.Context, donorID int64) (*Donor, error) {
	now := s.clock.Now()

	var reset *Donor
	err := s.repo.InTx(ctx, func(tx Repository) error {
		d, err := tx.GetByIDForUpdate(ctx, donorID)
		if err != nil {
			return err
		}
		if _, err := tx.Approvals().CloseOpenForDonor(ctx, donorID, approval.KindDonor, approval.OutcomeReset, now); err != nil {
			return err
		}
		if err := tx.UpdateVerification(ctx, donorID, StatusUnverified, nil, nil); err != nil {
			return err
		}
		d.Status = StatusUnverified
		d.ChatID = nil
		d.VerifiedAt = nil
		reset = d
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "donor reset failed", "donor_id", donorID)
	}

	s.metrics.DonorTransition(string(StatusUnverified))
	s.logger.Info("donor reset", "donor_id", donorID)
	return reset, nil
}

// Seed bulk-loads donors. Duplicate PINs, whether repeated in the input or
// already stored, are reported as SeedConflict entries and skipped.
func (s *Service) Seed(ctx context.Context, records []SeedRecord) (*SeedReport, error) {
	report := &SeedReport{}

	pins := make([]string, 0, len(records))
	for _, r := range records {
		pins = append(pins, r.PIN)
	}
	existing, err := s.repo.ExistingPINs(ctx, pins)
	if err != nil {
		return nil, fmt.Errorf("load existing pins: %w", err)
	}

	seen := make(map[string]int, len(records))
	for _, r := range records {
		if firstLine, dup := seen[r.PIN]; dup {
			report.Conflicts = append(report.Conflicts, SeedConflict{
				Line:   r.Line,
				PIN:    r.PIN,
				Reason: fmt.Sprintf("duplicate of line %d", firstLine),
				Err:    internal.ErrSeedConflict,
			})
			continue
		}
		seen[r.PIN] = r.Line

		if existing[r.PIN] {
			report.Conflicts = append(report.Conflicts, SeedConflict{
				Line:   r.Line,
				PIN:    r.PIN,
				Reason: "pin already registered",
				Err:    internal.ErrSeedConflict,
			})
			continue
		}

		d := &Donor{
			PIN:          r.PIN,
			FullName:     r.FullName,
			PledgeAmount: r.PledgeAmount,
			DonationLink: r.DonationLink,
			Status:       StatusUnverified,
		}
		if err := s.repo.Create(ctx, d); err != nil {
			if errors.Is(err, internal.ErrSeedConflict) {
				report.Conflicts = append(report.Conflicts, SeedConflict{Line: r.Line, PIN: r.PIN, Reason: "pin already registered", Err: err})
				continue
			}
			return report, fmt.Errorf("insert donor from line %d: %w", r.Line, err)
		}
		report.Inserted++
	}

	for _, c := range report.Conflicts {
		s.logger.Warn("seed conflict", "line", c.Line, "pin", c.PIN, "reason", c.Reason)
	}
	s.logger.Info("seed finished", "inserted", report.Inserted, "conflicts", len(report.Conflicts))
	return report, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Donor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByChatID(ctx context.Context, chatID int64) (*Donor, error) {
	return s.repo.GetByChatID(ctx, chatID)
}

func (s *Service) ListVerified(ctx context.Context) ([]*Donor, error) {
	return s.repo.ListVerified(ctx)
}

func (s *Service) List(ctx context.Context) ([]*Donor, error) {
	return s.repo.List(ctx)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

// fail logs err at the level its kind deserves and makes persistence failures
// retryable for the caller.
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
