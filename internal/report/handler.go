package report

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/charity-reminder/internal/core/common/validation"
	"github.com/frahmantamala/charity-reminder/internal/transport"
	"github.com/frahmantamala/charity-reminder/pkg/logger"
)

type ServiceAPI interface {
	Summarize(ctx context.Context, year, month int) (*Summary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service   ServiceAPI
	Renderers map[string]Renderer
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Renderers: map[string]Renderer{
			"pdf":  PDFRenderer{},
			"xlsx": XLSXRenderer{},
			"text": TextRenderer{},
		},
	}
}

// Get handles GET /api/v1/reports/{year}/{month}. Without ?format the summary
// is returned as JSON.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	period, err := h.PathPeriod(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	validator := validation.NewValidator()
	validator.Field("format", format).OneOf("json", "pdf", "xlsx", "text")
	if appErr := validator.Validate(); appErr != nil {
		h.HandleServiceError(w, appErr)
		return
	}

	summary, err := h.Service.Summarize(r.Context(), period.Year, period.Month)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if format == "json" {
		h.WriteJSON(w, http.StatusOK, summary)
		return
	}

	renderer, ok := h.Renderers[format]
	if !ok {
		h.WriteError(w, http.StatusNotImplemented, "no renderer for format "+format)
		return
	}

	doc, err := renderer.Render(*summary)
	if err != nil {
		h.Logger.Error("failed to render report", "format", format, "period", summary.Period.String(), "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	h.WriteFile(w, doc.ContentType, doc.Filename, doc.Body)
}
