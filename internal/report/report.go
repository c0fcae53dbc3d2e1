// Package report compiles the per-period payment summary handed to renderers.
package report

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/payment"
)

type Row struct {
	DonorID      int64           `json:"donor_id"`
	FullName     string          `json:"full_name"`
	PledgeAmount decimal.Decimal `json:"pledge_amount"`
	Status       payment.Status  `json:"status"`
}

type Totals struct {
	Donors    int                    `json:"donors"`
	Pledged   decimal.Decimal        `json:"pledged"`
	Collected decimal.Decimal        `json:"collected"`
	ByStatus  map[payment.Status]int `json:"by_status"`
}

// Summary is one period's status for every verified donor, ordered by donor id.
type Summary struct {
	Period jalali.Period `json:"period"`
	Rows   []Row         `json:"rows"`
	Totals Totals        `json:"totals"`
}

// Source loads the data a summary is built from.
type Source interface {
	VerifiedDonors(ctx context.Context) ([]*donor.Donor, error)
	PaymentsForPeriod(ctx context.Context, period jalali.Period) ([]*payment.Payment, error)
}

// Aggregate builds the summary for period. Donors that are not verified are
// left out; verified donors without a payment row are reported as missing.
// Payments outside period are ignored.
func Aggregate(period jalali.Period, donors []*donor.Donor, payments []*payment.Payment) Summary {
	statuses := make(map[int64]payment.Status, len(payments))
	for _, p := range payments {
		if p.Period == period {
			statuses[p.DonorID] = p.Status
		}
	}

	summary := Summary{
		Period: period,
		Rows:   make([]Row, 0, len(donors)),
		Totals: Totals{
			Pledged:   decimal.Zero,
			Collected: decimal.Zero,
			ByStatus: map[payment.Status]int{
				payment.StatusMissing:  0,
				payment.StatusPending:  0,
				payment.StatusApproved: 0,
				payment.StatusFailed:   0,
			},
		},
	}

	for _, d := range donors {
		if !d.IsVerified() {
			continue
		}
		status, ok := statuses[d.ID]
		if !ok {
			status = payment.StatusMissing
		}

		summary.Rows = append(summary.Rows, Row{
			DonorID:      d.ID,
			FullName:     d.FullName,
			PledgeAmount: d.PledgeAmount,
			Status:       status,
		})
		summary.Totals.Donors++
		summary.Totals.Pledged = summary.Totals.Pledged.Add(d.PledgeAmount)
		summary.Totals.ByStatus[status]++
		if status == payment.StatusApproved {
			summary.Totals.Collected = summary.Totals.Collected.Add(d.PledgeAmount)
		}
	}

	sort.SliceStable(summary.Rows, func(i, j int) bool {
		return summary.Rows[i].DonorID < summary.Rows[j].DonorID
	})
	return summary
}

// Unpaid returns rows whose donors still owe this period: missing or failed.
func (s Summary) Unpaid() []Row {
	var rows []Row
	for _, r := range s.Rows {
		if r.Status == payment.StatusMissing || r.Status == payment.StatusFailed {
			rows = append(rows, r)
		}
	}
	return rows
}
