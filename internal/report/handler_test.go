package report_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/report"
)

type stubSummarizer struct {
	calls int
}

func (s *stubSummarizer) Summarize(_ context.Context, year, month int) (*report.Summary, error) {
	s.calls++
	period := jalali.Period{Year: year, Month: month}
	summary := report.Aggregate(period, []*donor.Donor{verifiedDonor(1, "Ali", 500000)}, nil)
	return &summary, nil
}

var _ = Describe("Handler", func() {
	var (
		router chi.Router
		stub   *stubSummarizer
	)

	BeforeEach(func() {
		stub = &stubSummarizer{}
		h := report.NewHandler(stub)
		router = chi.NewRouter()
		router.Get("/reports/{year}/{month}", h.Get)
	})

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	It("returns the summary as json by default", func() {
		rec := serve("/reports/1403/7")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body report.Summary
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Period).To(Equal(jalali.Period{Year: 1403, Month: 7}))
		Expect(body.Rows).To(HaveLen(1))
	})

	It("serves a rendered file for a known format", func() {
		rec := serve("/reports/1403/7?format=xlsx")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal(report.ContentTypeXLSX))
		Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("monthly_report_1403_07.xlsx"))
	})

	It("rejects an unknown format", func() {
		rec := serve("/reports/1403/7?format=doc")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("format must be one of"))
		Expect(stub.calls).To(BeZero())
	})

	It("rejects a non-numeric period", func() {
		rec := serve("/reports/abc/7")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
