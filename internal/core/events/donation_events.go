package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentSubmitted           = "payment.submitted"
	EventTypePaymentDecided             = "payment.decided"
	EventTypeDonorVerificationRequested = "donor.verification_requested"
	EventTypeDonorVerificationDecided   = "donor.verification_decided"
)

type PaymentSubmittedEvent struct {
	BaseEvent
	PaymentID   int64  `json:"payment_id"`
	ApprovalID  int64  `json:"approval_id"`
	DonorID     int64  `json:"donor_id"`
	JalaliYear  int    `json:"jalali_year"`
	JalaliMonth int    `json:"jalali_month"`
	ReceiptRef  string `json:"receipt_ref"`
	FileID      string `json:"file_id,omitempty"`
	Resubmitted bool   `json:"resubmitted"`
}

func NewPaymentSubmittedEvent(paymentID, approvalID, donorID int64, year, month int, receiptRef, fileID string, resubmitted bool) *PaymentSubmittedEvent {
	return &PaymentSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":   paymentID,
				"approval_id":  approvalID,
				"donor_id":     donorID,
				"jalali_year":  year,
				"jalali_month": month,
				"receipt_ref":  receiptRef,
				"resubmitted":  resubmitted,
			},
		},
		PaymentID:   paymentID,
		ApprovalID:  approvalID,
		DonorID:     donorID,
		JalaliYear:  year,
		JalaliMonth: month,
		ReceiptRef:  receiptRef,
		FileID:      fileID,
		Resubmitted: resubmitted,
	}
}

type PaymentDecidedEvent struct {
	BaseEvent
	PaymentID   int64  `json:"payment_id"`
	ApprovalID  int64  `json:"approval_id"`
	DonorID     int64  `json:"donor_id"`
	JalaliYear  int    `json:"jalali_year"`
	JalaliMonth int    `json:"jalali_month"`
	Status      string `json:"status"`
}

func NewPaymentDecidedEvent(paymentID, approvalID, donorID int64, year, month int, status string) *PaymentDecidedEvent {
	return &PaymentDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":   paymentID,
				"approval_id":  approvalID,
				"donor_id":     donorID,
				"jalali_year":  year,
				"jalali_month": month,
				"status":       status,
			},
		},
		PaymentID:   paymentID,
		ApprovalID:  approvalID,
		DonorID:     donorID,
		JalaliYear:  year,
		JalaliMonth: month,
		Status:      status,
	}
}

type DonorVerificationRequestedEvent struct {
	BaseEvent
	DonorID    int64  `json:"donor_id"`
	ApprovalID int64  `json:"approval_id"`
	ChatID     int64  `json:"chat_id"`
	FullName   string `json:"full_name"`
}

func NewDonorVerificationRequestedEvent(donorID, approvalID, chatID int64, fullName string) *DonorVerificationRequestedEvent {
	return &DonorVerificationRequestedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeDonorVerificationRequested,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"donor_id":    donorID,
				"approval_id": approvalID,
				"chat_id":     chatID,
			},
		},
		DonorID:    donorID,
		ApprovalID: approvalID,
		ChatID:     chatID,
		FullName:   fullName,
	}
}

type DonorVerificationDecidedEvent struct {
	BaseEvent
	DonorID    int64 `json:"donor_id"`
	ApprovalID int64 `json:"approval_id"`
	ChatID     int64 `json:"chat_id"`
	Approved   bool  `json:"approved"`
}

func NewDonorVerificationDecidedEvent(donorID, approvalID, chatID int64, approved bool) *DonorVerificationDecidedEvent {
	return &DonorVerificationDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeDonorVerificationDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"donor_id":    donorID,
				"approval_id": approvalID,
				"approved":    approved,
			},
		},
		DonorID:    donorID,
		ApprovalID: approvalID,
		ChatID:     chatID,
		Approved:   approved,
	}
}
