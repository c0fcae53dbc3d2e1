package approval

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/charity-reminder/internal/transport"
	"github.com/frahmantamala/charity-reminder/pkg/logger"
)

type ServiceAPI interface {
	ListOpen(ctx context.Context) ([]*Approval, error)
	Get(ctx context.Context, id int64) (*Approval, error)
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

func (h *Handler) ListOpen(w http.ResponseWriter, r *http.Request) {
	approvals, err := h.Service.ListOpen(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"approvals": approvals})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}
