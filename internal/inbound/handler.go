package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/charity-reminder/internal/core/common/validation"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/notification"
	"github.com/frahmantamala/charity-reminder/internal/transport"
	"github.com/frahmantamala/charity-reminder/pkg/logger"
)

type EventHandler interface {
	Handle(ctx context.Context, e Event) ([]notification.Message, error)
}

// Handler exposes the inbound events over HTTP for transports other than the
// bot poller. The replies are returned to the caller, not delivered.
type Handler struct {
	*transport.BaseHandler
	Dispatcher EventHandler
}

func NewHandler(dispatcher EventHandler) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Dispatcher:  dispatcher,
	}
}

type pinRequest struct {
	ChatID int64  `json:"chat_id"`
	PIN    string `json:"pin"`
}

type receiptRequest struct {
	ChatID      int64  `json:"chat_id"`
	ArtifactRef string `json:"artifact_ref"`
	FileID      string `json:"file_id"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
}

type decisionRequest struct {
	ChatID     int64 `json:"chat_id"`
	ApprovalID int64 `json:"approval_id"`
	Approve    bool  `json:"approve"`
}

type commandRequest struct {
	ChatID  int64    `json:"chat_id"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

func (h *Handler) EnterPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if !h.decode(w, r, &req) {
		return
	}
	if appErr := validation.ValidateChatID(req.ChatID); appErr != nil {
		h.HandleServiceError(w, appErr)
		return
	}
	h.dispatch(w, r, PinEntered{ChatID: req.ChatID, PIN: req.PIN})
}

func (h *Handler) SubmitReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !h.decode(w, r, &req) {
		return
	}

	validator := validation.NewValidator()
	validator.Field("chat_id", req.ChatID).Required()
	validator.Field("artifact_ref", strings.TrimSpace(req.ArtifactRef)).Required().MaxLength(512)
	if appErr := validator.Validate(); appErr != nil {
		h.HandleServiceError(w, appErr)
		return
	}

	var period jalali.Period
	if req.Year != 0 || req.Month != 0 {
		if appErr := validation.ValidatePeriod(req.Year, req.Month); appErr != nil {
			h.HandleServiceError(w, appErr)
			return
		}
		period = jalali.Period{Year: req.Year, Month: req.Month}
	}

	h.dispatch(w, r, ReceiptUploaded{
		ChatID:      req.ChatID,
		ArtifactRef: req.ArtifactRef,
		FileID:      req.FileID,
		Period:      period,
	})
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if !h.decode(w, r, &req) {
		return
	}

	validator := validation.NewValidator()
	validator.Field("chat_id", req.ChatID).Required()
	validator.Field("approval_id", req.ApprovalID).Required()
	if appErr := validator.Validate(); appErr != nil {
		h.HandleServiceError(w, appErr)
		return
	}
	h.dispatch(w, r, AdminDecision{ChatID: req.ChatID, ApprovalID: req.ApprovalID, Approve: req.Approve})
}

func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !h.decode(w, r, &req) {
		return
	}

	validator := validation.NewValidator()
	validator.Field("chat_id", req.ChatID).Required()
	validator.Field("command", strings.TrimSpace(req.Command)).Required().MaxLength(64)
	if appErr := validator.Validate(); appErr != nil {
		h.HandleServiceError(w, appErr)
		return
	}
	h.dispatch(w, r, CommandInvoked{ChatID: req.ChatID, Command: req.Command, Args: req.Args})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, e Event) {
	replies, err := h.Dispatcher.Handle(r.Context(), e)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"replies": replies})
}
