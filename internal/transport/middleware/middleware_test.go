package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	chiMiddleware "github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal/transport/middleware"
)

var _ = Describe("RequestID", func() {
	It("keeps the caller's id", func() {
		var seen string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = chiMiddleware.GetReqID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(seen).To(Equal("abc-123"))
		Expect(rec.Header().Get(middleware.RequestIDHeader)).To(Equal("abc-123"))
	})

	It("mints an id when none is sent", func() {
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers a panic with a JSON 500", func() {
		var logs bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&logs, nil))
		h := middleware.RecoveryMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/explode", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
		Expect(logs.String()).To(ContainSubstring("panic recovered"))
		Expect(logs.String()).To(ContainSubstring("boom"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	var (
		logs bytes.Buffer
		lg   *slog.Logger
	)

	BeforeEach(func() {
		logs.Reset()
		lg = slog.New(slog.NewJSONHandler(&logs, nil))
	})

	It("masks secrets in request and response bodies", func() {
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tkn","token_type":"Bearer"}`))
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"hunter2"}`))
		req.Header.Set("Authorization", "Bearer xyz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Body.String()).To(ContainSubstring("tkn"))
		out := logs.String()
		Expect(out).To(ContainSubstring("admin"))
		Expect(out).NotTo(ContainSubstring("hunter2"))
		Expect(out).NotTo(ContainSubstring("tkn"))
		Expect(out).NotTo(ContainSubstring("Bearer xyz"))
		Expect(out).To(ContainSubstring("[FILTERED]"))
	})

	It("leaves the request body readable for the handler", func() {
		var body string
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buf := new(bytes.Buffer)
			_, _ = buf.ReadFrom(r.Body)
			body = buf.String()
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"chat_id":1}`)))
		Expect(body).To(Equal(`{"chat_id":1}`))
	})

	It("does not log binary responses", func() {
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4 secret-looking bytes"))
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/reports/1403/7?format=pdf", nil))
		Expect(logs.String()).To(ContainSubstring("[binary]"))
		Expect(logs.String()).NotTo(ContainSubstring("PDF-1.4"))
	})

	It("logs server errors at error level", func() {
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(logs.String()).To(ContainSubstring(`"level":"ERROR"`))
		Expect(logs.String()).To(ContainSubstring(`"status_code":503`))
	})
})
