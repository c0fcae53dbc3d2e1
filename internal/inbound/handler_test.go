package inbound_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/inbound"
	"github.com/frahmantamala/charity-reminder/internal/notification"
)

type recordingHandler struct {
	events []inbound.Event
	err    error
}

func (r *recordingHandler) Handle(_ context.Context, e inbound.Event) ([]notification.Message, error) {
	r.events = append(r.events, e)
	if r.err != nil {
		return []notification.Message{{ChatID: 1, Text: "sorry"}}, r.err
	}
	return []notification.Message{{ChatID: 1, Text: "ok"}}, nil
}

var _ = Describe("Handler", func() {
	var (
		events  *recordingHandler
		handler *inbound.Handler
	)

	post := func(fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		fn(rec, req)
		return rec
	}

	BeforeEach(func() {
		events = &recordingHandler{}
		handler = inbound.NewHandler(events)
	})

	It("dispatches a PIN entry and returns the replies", func() {
		rec := post(handler.EnterPIN, `{"chat_id": 555, "pin": "42"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(events.events).To(Equal([]inbound.Event{inbound.PinEntered{ChatID: 555, PIN: "42"}}))

		var body struct {
			Replies []notification.Message `json:"replies"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Replies).To(HaveLen(1))
		Expect(body.Replies[0].Text).To(Equal("ok"))
	})

	It("rejects a missing chat id", func() {
		rec := post(handler.EnterPIN, `{"pin": "42"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(events.events).To(BeEmpty())
	})

	It("rejects a malformed body", func() {
		rec := post(handler.Command, `{`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("passes an explicit receipt period through", func() {
		rec := post(handler.SubmitReceipt, `{"chat_id": 555, "artifact_ref": "s3://b/r.jpg", "year": 1403, "month": 6}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(events.events).To(Equal([]inbound.Event{inbound.ReceiptUploaded{
			ChatID:      555,
			ArtifactRef: "s3://b/r.jpg",
			Period:      jalali.Period{Year: 1403, Month: 6},
		}}))
	})

	It("rejects an impossible receipt period", func() {
		rec := post(handler.SubmitReceipt, `{"chat_id": 555, "artifact_ref": "s3://b/r.jpg", "year": 1403, "month": 13}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(events.events).To(BeEmpty())
	})

	It("requires an approval id on decisions", func() {
		rec := post(handler.Decide, `{"chat_id": 999, "approve": true}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		rec = post(handler.Decide, `{"chat_id": 999, "approval_id": 7, "approve": true}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(events.events).To(Equal([]inbound.Event{inbound.AdminDecision{ChatID: 999, ApprovalID: 7, Approve: true}}))
	})

	It("maps unexpected failures to their status", func() {
		events.err = internal.NewUnavailableError("donor lookup failed", nil)
		rec := post(handler.Command, `{"chat_id": 555, "command": "/amount"}`)
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
	})
})
