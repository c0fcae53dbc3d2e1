package validation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/common/validation"
)

var _ = Describe("ValidationBuilder", func() {
	It("collects every failing field", func() {
		v := validation.NewValidator()
		v.Field("pin", "  ").Required()
		v.Field("command", "dance").OneOf("start", "help")
		v.Field("chat_id", int64(0)).Required()

		appErr := v.Validate()
		Expect(appErr).NotTo(BeNil())
		details, ok := appErr.Details.(internal.ValidationErrors)
		Expect(ok).To(BeTrue())
		Expect(details.Errors).To(HaveLen(3))
		Expect(details.Errors[0].Field).To(Equal("pin"))
		Expect(details.Errors[1].Field).To(Equal("command"))
	})

	It("passes valid input", func() {
		v := validation.NewValidator()
		v.Field("pin", "1234").Required().MaxLength(16)
		Expect(v.Validate()).To(BeNil())
	})
})

var _ = Describe("ValidatePeriod", func() {
	It("accepts a valid period", func() {
		Expect(validation.ValidatePeriod(1403, 12)).To(BeNil())
	})

	DescribeTable("rejects bad periods",
		func(year, month int) {
			appErr := validation.ValidatePeriod(year, month)
			Expect(appErr).NotTo(BeNil())
			Expect(appErr.StatusCode).To(Equal(400))
		},
		Entry("month zero", 1403, 0),
		Entry("month thirteen", 1403, 13),
		Entry("year zero", 0, 5),
	)
})

var _ = Describe("ValidateChatID", func() {
	It("requires a chat id", func() {
		Expect(validation.ValidateChatID(0)).NotTo(BeNil())
		Expect(validation.ValidateChatID(42)).To(BeNil())
	})
})
