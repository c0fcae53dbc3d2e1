package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/payment"
)

type Service struct {
	source Source
	logger *slog.Logger
}

func NewService(source Source, logger *slog.Logger) *Service {
	return &Service{source: source, logger: logger}
}

func (s *Service) Summarize(ctx context.Context, year, month int) (*Summary, error) {
	period, err := jalali.NewPeriod(year, month)
	if err != nil {
		return nil, internal.NewInvalidCalendarDateError(err)
	}

	donors, err := s.source.VerifiedDonors(ctx)
	if err != nil {
		s.logger.Error("failed to load donors for report", "period", period.String(), "error", err)
		return nil, fmt.Errorf("load donors: %w", err)
	}
	payments, err := s.source.PaymentsForPeriod(ctx, period)
	if err != nil {
		s.logger.Error("failed to load payments for report", "period", period.String(), "error", err)
		return nil, fmt.Errorf("load payments for %s: %w", period, err)
	}

	summary := Aggregate(period, donors, payments)
	s.logger.Info("report summarized",
		"period", period.String(),
		"donors", summary.Totals.Donors,
		"approved", summary.Totals.ByStatus[payment.StatusApproved])
	return &summary, nil
}
