package payment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/transport"
	"github.com/frahmantamala/charity-reminder/pkg/logger"
)

type ServiceAPI interface {
	StatusFor(ctx context.Context, donorID int64, period jalali.Period) (Status, error)
	History(ctx context.Context, donorID int64) ([]*Payment, error)
	Transitions(ctx context.Context, paymentID int64) ([]*Transition, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// History handles GET /api/v1/donors/{id}/payments
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	donorID, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	payments, err := h.Service.History(r.Context(), donorID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}

// Status handles GET /api/v1/donors/{id}/payments/{year}/{month}
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	donorID, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	period, err := h.PathPeriod(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	status, err := h.Service.StatusFor(r.Context(), donorID, period)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"donor_id": donorID,
		"period":   period,
		"status":   status,
	})
}

// Transitions handles GET /api/v1/payments/{id}/transitions
func (h *Handler) Transitions(w http.ResponseWriter, r *http.Request) {
	paymentID, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	transitions, err := h.Service.Transitions(r.Context(), paymentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"transitions": transitions})
}
