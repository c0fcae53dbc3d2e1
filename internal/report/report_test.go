package report_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/payment"
	"github.com/frahmantamala/charity-reminder/internal/report"
)

func verifiedDonor(id int64, name string, amount int64) *donor.Donor {
	return &donor.Donor{ID: id, FullName: name, PledgeAmount: decimal.NewFromInt(amount), Status: donor.StatusVerified}
}

type mockSource struct {
	donors   []*donor.Donor
	payments []*payment.Payment
	err      error
}

func (m *mockSource) VerifiedDonors(context.Context) ([]*donor.Donor, error) {
	return m.donors, m.err
}

func (m *mockSource) PaymentsForPeriod(_ context.Context, period jalali.Period) ([]*payment.Payment, error) {
	var out []*payment.Payment
	for _, p := range m.payments {
		if p.Period == period {
			out = append(out, p)
		}
	}
	return out, m.err
}

var _ = Describe("Aggregate", func() {
	period := jalali.Period{Year: 1403, Month: 7}

	It("orders rows by donor id, skips unverified donors and fills in missing", func() {
		donors := []*donor.Donor{
			verifiedDonor(3, "Reza", 100000),
			{ID: 2, FullName: "Pending", PledgeAmount: decimal.NewFromInt(1), Status: donor.StatusPendingAdmin},
			verifiedDonor(1, "Ali", 500000),
			{ID: 4, FullName: "New", PledgeAmount: decimal.NewFromInt(1), Status: donor.StatusUnverified},
			verifiedDonor(5, "Sara", 250000),
		}
		payments := []*payment.Payment{
			{DonorID: 1, Period: period, Status: payment.StatusApproved},
			{DonorID: 5, Period: period, Status: payment.StatusFailed},
			{DonorID: 2, Period: period, Status: payment.StatusPending},
			{DonorID: 3, Period: period.Prev(), Status: payment.StatusApproved},
		}

		summary := report.Aggregate(period, donors, payments)

		Expect(summary.Period).To(Equal(period))
		Expect(summary.Rows).To(HaveLen(3))
		Expect(summary.Rows[0].DonorID).To(Equal(int64(1)))
		Expect(summary.Rows[0].Status).To(Equal(payment.StatusApproved))
		Expect(summary.Rows[1].DonorID).To(Equal(int64(3)))
		Expect(summary.Rows[1].Status).To(Equal(payment.StatusMissing))
		Expect(summary.Rows[2].DonorID).To(Equal(int64(5)))
		Expect(summary.Rows[2].Status).To(Equal(payment.StatusFailed))

		Expect(summary.Totals.Donors).To(Equal(3))
		Expect(summary.Totals.Pledged.Equal(decimal.NewFromInt(850000))).To(BeTrue())
		Expect(summary.Totals.Collected.Equal(decimal.NewFromInt(500000))).To(BeTrue())
		Expect(summary.Totals.ByStatus).To(Equal(map[payment.Status]int{
			payment.StatusMissing:  1,
			payment.StatusPending:  0,
			payment.StatusApproved: 1,
			payment.StatusFailed:   1,
		}))

		unpaid := summary.Unpaid()
		Expect(unpaid).To(HaveLen(2))
		Expect(unpaid[0].DonorID).To(Equal(int64(3)))
		Expect(unpaid[1].DonorID).To(Equal(int64(5)))
	})

	It("is deterministic for the same input", func() {
		donors := []*donor.Donor{verifiedDonor(2, "B", 1), verifiedDonor(1, "A", 1)}
		Expect(report.Aggregate(period, donors, nil)).To(Equal(report.Aggregate(period, donors, nil)))
	})

	It("returns an empty summary when nobody is verified", func() {
		summary := report.Aggregate(period, nil, nil)
		Expect(summary.Rows).To(BeEmpty())
		Expect(summary.Totals.Pledged.IsZero()).To(BeTrue())
	})
})

var _ = Describe("Service", func() {
	var (
		source  *mockSource
		service *report.Service
	)

	BeforeEach(func() {
		source = &mockSource{
			donors: []*donor.Donor{verifiedDonor(1, "Ali", 500000)},
			payments: []*payment.Payment{
				{DonorID: 1, Period: jalali.Period{Year: 1403, Month: 7}, Status: payment.StatusPending},
			},
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = report.NewService(source, logger)
	})

	It("summarizes the requested period", func() {
		summary, err := service.Summarize(context.Background(), 1403, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Rows).To(HaveLen(1))
		Expect(summary.Rows[0].Status).To(Equal(payment.StatusPending))
	})

	It("rejects an invalid period as an invalid calendar date", func() {
		_, err := service.Summarize(context.Background(), 1403, 0)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidCalendarDate))
	})

	It("passes loading errors through", func() {
		source.err = errors.New("connection refused")
		_, err := service.Summarize(context.Background(), 1403, 7)
		Expect(err).To(MatchError(ContainSubstring("connection refused")))
	})
})

var _ = Describe("Renderers", func() {
	var summary report.Summary

	BeforeEach(func() {
		period := jalali.Period{Year: 1403, Month: 7}
		summary = report.Aggregate(period,
			[]*donor.Donor{verifiedDonor(1, "Ali", 500000), verifiedDonor(2, "Sara", 1250000)},
			[]*payment.Payment{{DonorID: 1, Period: period, Status: payment.StatusApproved}})
	})

	It("formats amounts with thousands separators", func() {
		Expect(report.FormatAmount(decimal.NewFromInt(500000))).To(Equal("500,000"))
		Expect(report.FormatAmount(decimal.NewFromInt(1250000))).To(Equal("1,250,000"))
		Expect(report.FormatAmount(decimal.NewFromInt(999))).To(Equal("999"))
		Expect(report.FormatAmount(decimal.NewFromInt(-1000))).To(Equal("-1,000"))
	})

	It("renders a chat text line per donor", func() {
		doc, err := report.TextRenderer{}.Render(summary)
		Expect(err).NotTo(HaveOccurred())
		text := string(doc.Body)
		Expect(text).To(ContainSubstring("مهر 1403"))
		Expect(text).To(ContainSubstring("✅ تأیید شده | Ali | 500,000"))
		Expect(text).To(ContainSubstring("Sara | 1,250,000"))
	})

	It("renders a spreadsheet with one row per donor", func() {
		doc, err := report.XLSXRenderer{}.Render(summary)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Filename).To(Equal("monthly_report_1403_07.xlsx"))
		Expect(doc.ContentType).To(Equal(report.ContentTypeXLSX))

		f, err := excelize.OpenReader(bytes.NewReader(doc.Body))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		name, err := f.GetCellValue("1403-07", "B2")
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("Ali"))
		amount, err := f.GetCellValue("1403-07", "C3")
		Expect(err).NotTo(HaveOccurred())
		Expect(amount).To(Equal("1250000"))
		status, err := f.GetCellValue("1403-07", "D3")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(report.StatusLabel(payment.StatusMissing)))
	})

	It("renders a pdf document", func() {
		doc, err := report.PDFRenderer{}.Render(summary)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Filename).To(Equal("monthly_report_1403_07.pdf"))
		Expect(bytes.HasPrefix(doc.Body, []byte("%PDF"))).To(BeTrue())
	})
})
