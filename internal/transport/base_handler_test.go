package transport_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/transport"
)

var _ = Describe("BaseHandler", func() {
	var h *transport.BaseHandler

	BeforeEach(func() {
		h = transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	route := func(pattern, path string, fn http.HandlerFunc) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Get(pattern, fn)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	Describe("PathPeriod", func() {
		It("reads a valid period", func() {
			var got jalali.Period
			route("/{year}/{month}", "/1403/7", func(w http.ResponseWriter, r *http.Request) {
				p, err := h.PathPeriod(r)
				Expect(err).NotTo(HaveOccurred())
				got = p
			})
			Expect(got).To(Equal(jalali.Period{Year: 1403, Month: 7}))
		})

		It("rejects month 13 as an invalid calendar date", func() {
			rec := route("/{year}/{month}", "/1403/13", func(w http.ResponseWriter, r *http.Request) {
				_, err := h.PathPeriod(r)
				h.HandleServiceError(w, err)
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvalidCalendarDate)))
		})
	})

	Describe("PathID", func() {
		It("rejects negative ids", func() {
			rec := route("/{id}", "/-4", func(w http.ResponseWriter, r *http.Request) {
				_, err := h.PathID(r, "id")
				h.HandleServiceError(w, err)
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("HandleServiceError", func() {
		It("hides unexpected errors behind a 500", func() {
			rec := httptest.NewRecorder()
			h.HandleServiceError(rec, errors.New("pq: relation does not exist"))
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).NotTo(ContainSubstring("relation"))
		})

		It("uses the AppError status", func() {
			rec := httptest.NewRecorder()
			h.HandleServiceError(rec, internal.ErrStaleApproval)
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeStaleApproval)))
		})
	})

	It("sends files as attachments", func() {
		rec := httptest.NewRecorder()
		h.WriteFile(rec, "application/pdf", "report-1403-07.pdf", []byte("%PDF"))
		Expect(rec.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="report-1403-07.pdf"`))
		Expect(rec.Header().Get("Content-Length")).To(Equal("4"))
		Expect(rec.Body.String()).To(Equal("%PDF"))
	})
})
