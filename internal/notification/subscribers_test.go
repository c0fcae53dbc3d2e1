package notification_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/events"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/notification"
)

type donorMap map[int64]*donor.Donor

func (m donorMap) GetByID(_ context.Context, id int64) (*donor.Donor, error) {
	if d, ok := m[id]; ok {
		return d, nil
	}
	return nil, internal.ErrDonorNotFound
}

var _ = Describe("Subscribers", func() {
	const adminChat = int64(999)

	var (
		sender  *recordingSender
		bus     *events.EventBus
		catalog notification.Catalog
		ctx     context.Context
	)

	chat := int64(555)
	donors := donorMap{
		1: {ID: 1, FullName: "Ali", ChatID: &chat, PledgeAmount: decimal.NewFromInt(500000), Status: donor.StatusVerified},
		2: {ID: 2, FullName: "No Chat", PledgeAmount: decimal.NewFromInt(1000), Status: donor.StatusVerified},
	}

	BeforeEach(func() {
		ctx = context.Background()
		sender = newRecordingSender()
		bus = events.NewEventBus(testLogger())
		catalog = notification.Catalog{CardNumber: "6221"}
		notification.NewSubscribers(donors, sender, catalog, adminChat, testLogger()).Register(bus)
	})

	It("sends the receipt to the admin with decision buttons", func() {
		err := bus.PublishSync(ctx, events.NewPaymentSubmittedEvent(10, 20, 1, 1403, 7, "local://r.jpg", "file-1", false))
		Expect(err).NotTo(HaveOccurred())

		msgs := sender.Messages()
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].ChatID).To(Equal(adminChat))
		Expect(msgs[0].Actions).To(Equal(notification.DecisionActions(20)))
		Expect(msgs[0].Attachment.FileID).To(Equal("file-1"))
	})

	It("tells the donor the outcome of a payment decision", func() {
		Expect(bus.PublishSync(ctx, events.NewPaymentDecidedEvent(10, 20, 1, 1403, 7, "failed"))).To(Succeed())

		msgs := sender.Messages()
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].ChatID).To(Equal(chat))
		Expect(msgs[0].Text).To(Equal(catalog.PaymentFailed(jalaliPeriod(1403, 7))))
	})

	It("skips donors without a chat", func() {
		Expect(bus.PublishSync(ctx, events.NewPaymentDecidedEvent(11, 21, 2, 1403, 7, "approved"))).To(Succeed())
		Expect(sender.Messages()).To(BeEmpty())
	})

	It("asks the admin to review a verification request", func() {
		Expect(bus.PublishSync(ctx, events.NewDonorVerificationRequestedEvent(1, 30, chat, "Ali"))).To(Succeed())

		msgs := sender.Messages()
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].ChatID).To(Equal(adminChat))
		Expect(msgs[0].Text).To(ContainSubstring("Ali"))
		Expect(msgs[0].Actions).To(Equal(notification.DecisionActions(30)))
	})

	It("welcomes an approved donor and informs a denied one", func() {
		Expect(bus.PublishSync(ctx, events.NewDonorVerificationDecidedEvent(1, 30, chat, true))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewDonorVerificationDecidedEvent(1, 31, 777, false))).To(Succeed())

		msgs := sender.Messages()
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Text).To(Equal(catalog.VerificationApproved(donors[1])))
		Expect(msgs[1].ChatID).To(Equal(int64(777)))
		Expect(msgs[1].Text).To(Equal(catalog.VerificationDenied()))
	})

	It("reports an unknown donor as a handler error", func() {
		err := bus.PublishSync(ctx, events.NewPaymentSubmittedEvent(10, 20, 404, 1403, 7, "ref", "", false))
		Expect(err).To(MatchError(ContainSubstring("load donor 404")))
	})
})
