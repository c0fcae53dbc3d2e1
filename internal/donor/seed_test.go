package donor_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal/donor"
)

var _ = Describe("ParseSeedCSV", func() {
	It("reads rows by header name", func() {
		input := "\ufeffFull Name, pin-code ,amount,donation link\n" +
			"Ali Rezaei,۱۰۰۱,\"500,000\",https://pay.example/ali\n" +
			"Sara Ahmadi,1002,250000,\n"

		records, invalid, err := donor.ParseSeedCSV(strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(invalid).To(BeEmpty())
		Expect(records).To(HaveLen(2))

		Expect(records[0].Line).To(Equal(2))
		Expect(records[0].PIN).To(Equal("1001"))
		Expect(records[0].FullName).To(Equal("Ali Rezaei"))
		Expect(records[0].PledgeAmount.String()).To(Equal("500000"))
		Expect(records[0].DonationLink).To(Equal("https://pay.example/ali"))

		Expect(records[1].PIN).To(Equal("1002"))
		Expect(records[1].DonationLink).To(BeEmpty())
	})

	It("collects malformed rows without stopping", func() {
		input := "pin-code,full name,amount\n" +
			",Nobody,100\n" +
			"2001,Bad Amount,lots\n" +
			"2002,Negative,-5\n" +
			"2003,Fine,10\n"

		records, invalid, err := donor.ParseSeedCSV(strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].PIN).To(Equal("2003"))

		lines := []int{}
		for _, c := range invalid {
			lines = append(lines, c.Line)
		}
		Expect(lines).To(Equal([]int{2, 3, 4}))
	})

	It("rejects a header without the required columns", func() {
		_, _, err := donor.ParseSeedCSV(strings.NewReader("pin-code,amount\n1,2\n"))
		Expect(err).To(MatchError(ContainSubstring("full name")))
	})

	It("rejects an empty file", func() {
		_, _, err := donor.ParseSeedCSV(strings.NewReader(""))
		Expect(err).To(HaveOccurred())
	})
})
