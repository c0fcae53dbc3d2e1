package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/notification"
	"github.com/frahmantamala/charity-reminder/internal/payment"
	"github.com/frahmantamala/charity-reminder/internal/report"
)

var ErrAdminChatNotConfigured = errors.New("admin chat is not configured")

type DonorLister interface {
	ListVerified(ctx context.Context) ([]*donor.Donor, error)
}

type StatusReader interface {
	StatusesForPeriod(ctx context.Context, period jalali.Period, donorIDs []int64) (map[int64]payment.Status, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, year, month int) (*report.Summary, error)
}

type BatchSender interface {
	SendBatch(ctx context.Context, msgs []notification.Message) notification.BatchResult
}

// Unpaid is a verified donor that still owes the period's donation.
type Unpaid struct {
	Donor  *donor.Donor
	Status payment.Status
}

// Actions holds the work behind each trigger kind.
type Actions struct {
	donors      DonorLister
	payments    StatusReader
	reports     Summarizer
	renderers   []report.Renderer
	delivery    BatchSender
	catalog     notification.Catalog
	adminChatID int64
	logger      *slog.Logger
}

func NewActions(donors DonorLister, payments StatusReader, reports Summarizer, renderers []report.Renderer, delivery BatchSender, catalog notification.Catalog, adminChatID int64, logger *slog.Logger) *Actions {
	return &Actions{
		donors:      donors,
		payments:    payments,
		reports:     reports,
		renderers:   renderers,
		delivery:    delivery,
		catalog:     catalog,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

func (a *Actions) Registry() map[Kind]ActionFunc {
	return map[Kind]ActionFunc{
		KindRemindAll:      a.RemindAll,
		KindFollowUpUnpaid: a.FollowUpUnpaid,
		KindMonthlyReport:  a.MonthlyReport,
	}
}

// RemindAll sends every verified donor the reminder for today's period.
func (a *Actions) RemindAll(ctx context.Context, today jalali.Date) error {
	donors, err := a.donors.ListVerified(ctx)
	if err != nil {
		return fmt.Errorf("list verified donors: %w", err)
	}

	period := today.Period()
	msgs := make([]notification.Message, 0, len(donors))
	for _, d := range donors {
		if d.ChatID == nil {
			continue
		}
		msgs = append(msgs, notification.Message{ChatID: *d.ChatID, Text: a.catalog.Reminder(d, period)})
	}

	a.deliver(ctx, KindRemindAll, period, msgs)
	return nil
}

// FollowUpUnpaid nudges verified donors whose period is missing or failed.
func (a *Actions) FollowUpUnpaid(ctx context.Context, today jalali.Date) error {
	period := today.Period()
	unpaid, err := a.UnpaidDonors(ctx, period)
	if err != nil {
		return err
	}

	msgs := make([]notification.Message, 0, len(unpaid))
	for _, u := range unpaid {
		if u.Donor.ChatID == nil {
			continue
		}
		msgs = append(msgs, notification.Message{ChatID: *u.Donor.ChatID, Text: a.catalog.FollowUp(u.Donor, period, u.Status)})
	}

	a.deliver(ctx, KindFollowUpUnpaid, period, msgs)
	return nil
}

// UnpaidDonors lists verified donors whose status for period is missing or
// failed, in the order the donor registry returns them.
func (a *Actions) UnpaidDonors(ctx context.Context, period jalali.Period) ([]Unpaid, error) {
	donors, err := a.donors.ListVerified(ctx)
	if err != nil {
		return nil, fmt.Errorf("list verified donors: %w", err)
	}

	ids := make([]int64, len(donors))
	for i, d := range donors {
		ids[i] = d.ID
	}
	statuses, err := a.payments.StatusesForPeriod(ctx, period, ids)
	if err != nil {
		return nil, fmt.Errorf("load statuses for %s: %w", period, err)
	}

	var unpaid []Unpaid
	for _, d := range donors {
		st := statuses[d.ID]
		if st == payment.StatusMissing || st == payment.StatusFailed {
			unpaid = append(unpaid, Unpaid{Donor: d, Status: st})
		}
	}
	return unpaid, nil
}

// MonthlyReport renders today's period and sends every document to the admin.
// Unlike the donor fan-outs, a failed delivery fails the action so the next
// poll tries again.
func (a *Actions) MonthlyReport(ctx context.Context, today jalali.Date) error {
	if a.adminChatID == 0 {
		return ErrAdminChatNotConfigured
	}

	period := today.Period()
	summary, err := a.reports.Summarize(ctx, period.Year, period.Month)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", period, err)
	}

	msgs := make([]notification.Message, 0, len(a.renderers))
	for _, r := range a.renderers {
		doc, err := r.Render(*summary)
		if err != nil {
			return fmt.Errorf("render report %s: %w", period, err)
		}
		msgs = append(msgs, notification.Message{
			ChatID: a.adminChatID,
			Text:   fmt.Sprintf("گزارش ماهانه %s", period.Title()),
			Attachment: &notification.Attachment{
				Kind:        notification.AttachmentDocument,
				Filename:    doc.Filename,
				ContentType: doc.ContentType,
				Body:        doc.Body,
			},
		})
	}

	result := a.deliver(ctx, KindMonthlyReport, period, msgs)
	if result.Failed > 0 {
		errs := make([]error, len(result.Failures))
		for i, f := range result.Failures {
			errs[i] = f.Err
		}
		return fmt.Errorf("deliver report %s: %w", period, errors.Join(errs...))
	}
	return nil
}

func (a *Actions) deliver(ctx context.Context, kind Kind, period jalali.Period, msgs []notification.Message) notification.BatchResult {
	result := a.delivery.SendBatch(ctx, msgs)
	a.logger.Info("trigger batch delivered",
		"trigger", kind,
		"period", period.String(),
		"recipients", len(msgs),
		"sent", result.Sent,
		"failed", result.Failed)
	return result
}
