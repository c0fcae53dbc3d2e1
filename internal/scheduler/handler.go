package scheduler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/transport"
	"github.com/frahmantamala/charity-reminder/pkg/logger"
)

type ServiceAPI interface {
	Statuses(ctx context.Context) ([]Status, error)
	Trigger(ctx context.Context, kind Kind) error
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Service.Statuses(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"triggers": statuses})
}

// Run fires a trigger by hand. The marker is not touched, so the scheduled
// run for the day still happens.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	admin := internal.AdminFromContext(r.Context())
	h.Logger.Info("manual trigger", "kind", kind, "admin", admin)

	if err := h.Service.Trigger(r.Context(), kind); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"kind": kind, "status": "done", "triggered_by": admin})
}
