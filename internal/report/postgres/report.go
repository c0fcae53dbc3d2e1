package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/payment"
)

// ReportRepository reads report data with plain SQL on the shared connection pool.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

type donorRow struct {
	ID           int64           `db:"id"`
	FullName     string          `db:"full_name"`
	PledgeAmount decimal.Decimal `db:"pledge_amount"`
	ChatID       *int64          `db:"chat_id"`
	Status       string          `db:"status"`
}

type paymentRow struct {
	ID          int64   `db:"id"`
	DonorID     int64   `db:"donor_id"`
	JalaliYear  int     `db:"jalali_year"`
	JalaliMonth int     `db:"jalali_month"`
	Status      string  `db:"status"`
	ReceiptRef  *string `db:"receipt_ref"`
}

func (r *ReportRepository) VerifiedDonors(ctx context.Context) ([]*donor.Donor, error) {
	query := r.db.Rebind(`
SELECT id, full_name, pledge_amount, chat_id, status
FROM donors
WHERE status = ?
ORDER BY id ASC`)

	var rows []donorRow
	if err := r.db.SelectContext(ctx, &rows, query, string(donor.StatusVerified)); err != nil {
		return nil, err
	}

	donors := make([]*donor.Donor, len(rows))
	for i, row := range rows {
		donors[i] = &donor.Donor{
			ID:           row.ID,
			FullName:     row.FullName,
			PledgeAmount: row.PledgeAmount,
			ChatID:       row.ChatID,
			Status:       donor.Status(row.Status),
		}
	}
	return donors, nil
}

func (r *ReportRepository) PaymentsForPeriod(ctx context.Context, period jalali.Period) ([]*payment.Payment, error) {
	query := r.db.Rebind(`
SELECT id, donor_id, jalali_year, jalali_month, status, receipt_ref
FROM payment_periods
WHERE jalali_year = ? AND jalali_month = ?
ORDER BY donor_id ASC`)

	var rows []paymentRow
	if err := r.db.SelectContext(ctx, &rows, query, period.Year, period.Month); err != nil {
		return nil, err
	}

	payments := make([]*payment.Payment, len(rows))
	for i, row := range rows {
		p := &payment.Payment{
			ID:      row.ID,
			DonorID: row.DonorID,
			Period:  jalali.Period{Year: row.JalaliYear, Month: row.JalaliMonth},
			Status:  payment.Status(row.Status),
		}
		if row.ReceiptRef != nil {
			p.ReceiptRef = *row.ReceiptRef
		}
		payments[i] = p
	}
	return payments, nil
}
