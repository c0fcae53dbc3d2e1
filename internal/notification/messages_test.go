package notification_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/notification"
	"github.com/frahmantamala/charity-reminder/internal/payment"
)

var _ = Describe("Decision actions", func() {
	It("round-trips approve and deny callbacks", func() {
		actions := notification.DecisionActions(42)
		Expect(actions).To(HaveLen(2))
		Expect(actions[0].Data).To(Equal("approve_42"))
		Expect(actions[1].Data).To(Equal("deny_42"))

		id, approve, ok := notification.ParseDecision(actions[0].Data)
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(int64(42)))
		Expect(approve).To(BeTrue())

		id, approve, ok = notification.ParseDecision(actions[1].Data)
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(int64(42)))
		Expect(approve).To(BeFalse())
	})

	DescribeTable("rejects malformed data",
		func(data string) {
			_, _, ok := notification.ParseDecision(data)
			Expect(ok).To(BeFalse())
		},
		Entry("unknown prefix", "accept_1"),
		Entry("no id", "approve_"),
		Entry("non numeric id", "deny_abc"),
		Entry("negative id", "approve_-3"),
		Entry("empty", ""),
	)
})

var _ = Describe("Catalog", func() {
	catalog := notification.Catalog{CardNumber: "6221061237757085", CardHolder: "Charity", AdminUsername: "@charity_admin"}
	d := &donor.Donor{ID: 1, FullName: "علی رضایی", PledgeAmount: decimal.NewFromInt(500000), DonationLink: "https://pay.example/ali"}
	period := jalali.Period{Year: 1403, Month: 7}

	It("puts the name, amount, month, link and card into the reminder", func() {
		text := catalog.Reminder(d, period)
		Expect(text).To(ContainSubstring("علی رضایی"))
		Expect(text).To(ContainSubstring("500,000"))
		Expect(text).To(ContainSubstring("مهر 1403"))
		Expect(text).To(ContainSubstring("https://pay.example/ali"))
		Expect(text).To(ContainSubstring("6221061237757085 - Charity"))
	})

	It("words the follow-up by status", func() {
		Expect(catalog.FollowUp(d, period, payment.StatusMissing)).To(ContainSubstring("هنوز ثبت نشده"))
		Expect(catalog.FollowUp(d, period, payment.StatusFailed)).To(ContainSubstring("تأیید نشد"))
	})

	It("attaches the receipt and the decision buttons to a payment review", func() {
		msg := catalog.AdminPaymentReview(7, d, period, "file-123", false)
		Expect(msg.Text).To(ContainSubstring("شناسه درخواست: 7"))
		Expect(msg.Actions).To(Equal(notification.DecisionActions(7)))
		Expect(msg.Attachment).NotTo(BeNil())
		Expect(msg.Attachment.Kind).To(Equal(notification.AttachmentPhoto))
		Expect(msg.Attachment.FileID).To(Equal("file-123"))

		Expect(catalog.AdminPaymentReview(7, d, period, "", true).Attachment).To(BeNil())
	})

	It("lists history newest first as given", func() {
		text := catalog.History([]*payment.Payment{
			{Period: period, Status: payment.StatusPending},
			{Period: period.Prev(), Status: payment.StatusApproved},
		})
		Expect(text).To(ContainSubstring("مهر 1403: ⏳ در انتظار"))
		Expect(text).To(ContainSubstring("شهریور 1403: ✅ تأیید شده"))
		Expect(catalog.History(nil)).To(Equal("سابقه‌ای برای شما وجود ندارد."))
	})

	It("shows admin commands only to the admin", func() {
		Expect(catalog.Help(false)).NotTo(ContainSubstring("/broadcast"))
		Expect(catalog.Help(true)).To(ContainSubstring("/broadcast"))
	})

	DescribeTable("maps rejections to denial texts",
		func(err error, want string) {
			Expect(catalog.Denial(err)).To(ContainSubstring(want))
		},
		Entry("not verified", fmt.Errorf("donor 1: %w", internal.ErrNotVerified), "هنوز تأیید نشده"),
		Entry("duplicate", internal.ErrDuplicateSubmission, "قبلا ثبت شده"),
		Entry("already bound", internal.ErrAlreadyBound, "@charity_admin"),
		Entry("stale approval", internal.ErrStaleApproval, "قبلا بررسی شده"),
		Entry("admin only", internal.ErrAdminOnly, "فقط ادمین"),
		Entry("unknown trigger", internal.ErrInvalidTrigger, "remind|followup|report"),
		Entry("plain error", fmt.Errorf("boom"), "خطایی رخ داد"),
	)
})

func jalaliPeriod(year, month int) jalali.Period {
	return jalali.Period{Year: year, Month: month}
}
