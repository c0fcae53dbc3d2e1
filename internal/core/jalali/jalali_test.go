package jalali_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
)

var _ = Describe("Jalali calendar", func() {
	DescribeTable("known Gregorian to Jalali anchors",
		func(gy int, gm time.Month, gd int, jy, jm, jd int) {
			d, err := jalali.FromGregorian(gy, gm, gd)
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(jalali.MustNew(jy, jm, jd)))

			y, m, day := d.Gregorian()
			Expect([]int{y, int(m), day}).To(Equal([]int{gy, int(gm), gd}))
		},
		Entry("nowruz 1403", 2024, time.March, 20, 1403, 1, 1),
		Entry("last day of 1402", 2024, time.March, 19, 1402, 12, 29),
		Entry("nowruz 1404", 2025, time.March, 21, 1404, 1, 1),
		Entry("leap day of 1403", 2025, time.March, 20, 1403, 12, 30),
		Entry("nowruz 1402", 2023, time.March, 21, 1402, 1, 1),
		Entry("leap day of 1399", 2021, time.March, 20, 1399, 12, 30),
		Entry("nowruz 1400", 2021, time.March, 21, 1400, 1, 1),
		Entry("first day of Mehr 1403", 2024, time.September, 22, 1403, 7, 1),
		Entry("gregorian new year 2000", 2000, time.January, 1, 1378, 10, 11),
		Entry("22 Bahman 1357", 1979, time.February, 11, 1357, 11, 22),
	)

	It("round-trips every Gregorian day from 1900 through 2100", func() {
		start := time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2100, time.December, 31, 0, 0, 0, 0, time.UTC)
		for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
			d := jalali.FromTime(t)
			y, m, day := d.Gregorian()
			if y != t.Year() || m != t.Month() || day != t.Day() {
				Fail("round trip mismatch for " + t.Format("2006-01-02") + " via " + d.String())
			}
		}
	})

	It("round-trips every Jalali day from 1300 through 1500", func() {
		for y := 1300; y <= 1500; y++ {
			for m := 1; m <= 12; m++ {
				for day := 1; day <= jalali.DaysInMonth(y, m); day++ {
					d := jalali.MustNew(y, m, day)
					gy, gm, gd := d.Gregorian()
					back, err := jalali.FromGregorian(gy, gm, gd)
					Expect(err).NotTo(HaveOccurred())
					if back != d {
						Fail("round trip mismatch for " + d.String() + " via " + back.String())
					}
				}
			}
		}
	})

	DescribeTable("AddDays across month and year boundaries",
		func(from jalali.Date, n int, want jalali.Date) {
			got, err := from.AddDays(n)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("leap Esfand into Farvardin", jalali.MustNew(1403, 12, 30), 1, jalali.MustNew(1404, 1, 1)),
		Entry("common Esfand into Farvardin", jalali.MustNew(1402, 12, 29), 1, jalali.MustNew(1403, 1, 1)),
		Entry("backwards over a year", jalali.MustNew(1403, 1, 1), -1, jalali.MustNew(1402, 12, 29)),
		Entry("Shahrivar into Mehr", jalali.MustNew(1403, 6, 31), 1, jalali.MustNew(1403, 7, 1)),
	)

	It("refuses to step outside the supported years", func() {
		last := jalali.MustNew(jalali.MaxYear, 12, jalali.DaysInMonth(jalali.MaxYear, 12))
		_, err := last.AddDays(1)
		Expect(err).To(MatchError(jalali.ErrInvalidDate))

		_, err = jalali.MustNew(jalali.MinYear, 1, 1).AddDays(-1)
		Expect(err).To(MatchError(jalali.ErrInvalidDate))

		same, err := last.AddDays(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(same).To(Equal(last))
	})

	Describe("leap years", func() {
		DescribeTable("IsLeap",
			func(year int, leap bool) {
				Expect(jalali.IsLeap(year)).To(Equal(leap))
			},
			Entry("1393", 1393, false),
			Entry("1395", 1395, true),
			Entry("1399", 1399, true),
			Entry("1402", 1402, false),
			Entry("1403", 1403, true),
			Entry("1404", 1404, false),
		)

		It("gives Esfand 30 days in a leap year and 29 otherwise", func() {
			Expect(jalali.DaysInMonth(1403, 12)).To(Equal(30))
			Expect(jalali.DaysInMonth(1402, 12)).To(Equal(29))
			Expect(jalali.DaysInMonth(1402, 1)).To(Equal(31))
			Expect(jalali.DaysInMonth(1402, 7)).To(Equal(30))
		})
	})

	Describe("New", func() {
		It("rejects day 30 of Esfand in a common year", func() {
			_, err := jalali.New(1402, 12, 30)
			Expect(err).To(MatchError(jalali.ErrInvalidDate))
		})

		It("accepts day 30 of Esfand in a leap year", func() {
			d, err := jalali.New(1403, 12, 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Day()).To(Equal(30))
		})

		DescribeTable("rejects out-of-range fields without clamping",
			func(y, m, d int) {
				_, err := jalali.New(y, m, d)
				Expect(err).To(MatchError(jalali.ErrInvalidDate))
			},
			Entry("month 0", 1403, 0, 1),
			Entry("month 13", 1403, 13, 1),
			Entry("day 0", 1403, 1, 0),
			Entry("day 31 in Mehr", 1403, 7, 31),
			Entry("day 32 in Farvardin", 1403, 1, 32),
			Entry("year 0", 0, 1, 1),
		)

		It("rejects Gregorian dates that do not exist", func() {
			_, err := jalali.FromGregorian(2023, time.February, 29)
			Expect(err).To(MatchError(jalali.ErrInvalidDate))
		})
	})

	Describe("formatting and parsing", func() {
		It("formats and parses the numeric form", func() {
			d := jalali.MustNew(1403, 7, 5)
			Expect(d.String()).To(Equal("1403/07/05"))

			parsed, err := jalali.Parse("1403-07-05")
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(d))
		})

		It("uses Persian month names for people", func() {
			Expect(jalali.MustNew(1403, 7, 5).Format()).To(Equal("5 مهر 1403"))
		})

		It("rejects malformed input", func() {
			_, err := jalali.Parse("1403/7")
			Expect(err).To(MatchError(jalali.ErrInvalidDate))
			_, err = jalali.Parse("1402/12/30")
			Expect(err).To(MatchError(jalali.ErrInvalidDate))
		})

		It("encodes as JSON text", func() {
			b, err := json.Marshal(struct {
				On jalali.Date `json:"on"`
			}{On: jalali.MustNew(1403, 1, 1)})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(b)).To(Equal(`{"on":"1403/01/01"}`))
		})
	})

	Describe("Period", func() {
		It("steps across year boundaries", func() {
			p := jalali.Period{Year: 1403, Month: 12}
			Expect(p.Next()).To(Equal(jalali.Period{Year: 1404, Month: 1}))
			Expect(p.Next().Prev()).To(Equal(p))
		})

		It("knows its bounds", func() {
			p := jalali.Period{Year: 1402, Month: 12}
			first, err := p.FirstDay()
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal(jalali.MustNew(1402, 12, 1)))
			last, err := p.LastDay()
			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(Equal(jalali.MustNew(1402, 12, 29)))
			Expect(p.Contains(jalali.MustNew(1402, 12, 15))).To(BeTrue())
			Expect(p.String()).To(Equal("1402/12"))
		})

		It("has no bounds when the month is out of range", func() {
			p := jalali.Period{Year: 1403, Month: 13}
			_, err := p.FirstDay()
			Expect(err).To(MatchError(jalali.ErrInvalidDate))
			_, err = p.LastDay()
			Expect(err).To(MatchError(jalali.ErrInvalidDate))
			_, err = jalali.Period{Year: jalali.MaxYear + 1, Month: 1}.LastDay()
			Expect(err).To(MatchError(jalali.ErrInvalidDate))
		})

		It("validates the month", func() {
			_, err := jalali.NewPeriod(1403, 13)
			Expect(err).To(MatchError(jalali.ErrInvalidDate))

			p, err := jalali.ParsePeriod("1403/07")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(jalali.Period{Year: 1403, Month: 7}))
		})
	})
})
