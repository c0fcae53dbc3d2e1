// Package inbound handles what chat users send: PIN entries, receipt uploads,
// admin decisions and commands.
package inbound

import "github.com/frahmantamala/charity-reminder/internal/core/jalali"

// Event is one of PinEntered, ReceiptUploaded, AdminDecision or
// CommandInvoked. No other type can implement it.
type Event interface {
	inboundEvent()
}

type PinEntered struct {
	ChatID int64  `json:"chat_id"`
	PIN    string `json:"pin"`
}

// ReceiptUploaded carries a receipt already stored as ArtifactRef. A zero
// Period means the current one.
type ReceiptUploaded struct {
	ChatID      int64         `json:"chat_id"`
	ArtifactRef string        `json:"artifact_ref"`
	FileID      string        `json:"file_id,omitempty"`
	Period      jalali.Period `json:"period"`
}

type AdminDecision struct {
	ChatID     int64 `json:"chat_id"`
	ApprovalID int64 `json:"approval_id"`
	Approve    bool  `json:"approve"`
}

type CommandInvoked struct {
	ChatID  int64    `json:"chat_id"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

func (PinEntered) inboundEvent()      {}
func (ReceiptUploaded) inboundEvent() {}
func (AdminDecision) inboundEvent()   {}
func (CommandInvoked) inboundEvent()  {}
