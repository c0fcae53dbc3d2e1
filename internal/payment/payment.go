package payment

import (
	"context"
	"time"

	"github.com/frahmantamala/charity-reminder/internal/approval"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	paymentDatamodel "github.com/frahmantamala/charity-reminder/internal/core/datamodel/payment"
)

// Status of one donor's payment for one Jalali month. StatusMissing is never
// stored: it is what queries return when the donor has not submitted anything.
type Status string

const (
	StatusMissing  Status = "missing"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusFailed   Status = "failed"
)

// IsDecided reports whether s is a terminal admin outcome.
func (s Status) IsDecided() bool {
	return s == StatusApproved || s == StatusFailed
}

// Payment is the record of one (donor, period) pair.
type Payment struct {
	ID            int64         `json:"id"`
	DonorID       int64         `json:"donor_id"`
	Period        jalali.Period `json:"period"`
	Status        Status        `json:"status"`
	ReceiptRef    string        `json:"receipt_ref,omitempty"`
	ReceiptFileID string        `json:"receipt_file_id,omitempty"`
	SubmittedAt   time.Time     `json:"submitted_at"`
	DecidedAt     *time.Time    `json:"decided_at,omitempty"`

	// ApprovalID is the approval opened or closed by the call that returned
	// this value. It is not persisted on the payment row.
	ApprovalID int64 `json:"approval_id,omitempty"`
}

type Transition struct {
	ID         int64     `json:"id"`
	PaymentID  int64     `json:"payment_id"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	ApprovalID *int64    `json:"approval_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Receipt is what a donor uploads. Ref is the stored artifact; FileID is the
// chat transport's handle for forwarding the same image to the admin.
type Receipt struct {
	Ref    string
	FileID string
}

// Policy holds the configurable rules of the state machine.
type Policy struct {
	// AllowResubmitAfterFailure lets a donor move a failed period back to
	// pending with a new receipt. Approved periods are never reopened.
	AllowResubmitAfterFailure bool
}

func DefaultPolicy() Policy {
	return Policy{AllowResubmitAfterFailure: true}
}

type Repository interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
	Approvals() approval.Repository

	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	RecordTransition(ctx context.Context, t *Transition) error

	Get(ctx context.Context, donorID int64, period jalali.Period) (*Payment, error)
	GetForUpdate(ctx context.Context, donorID int64, period jalali.Period) (*Payment, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Payment, error)
	ListByPeriod(ctx context.Context, period jalali.Period) ([]*Payment, error)
	ListByDonor(ctx context.Context, donorID int64) ([]*Payment, error)
	Transitions(ctx context.Context, paymentID int64) ([]*Transition, error)
}

func ToDataModel(p *Payment) *paymentDatamodel.PaymentPeriod {
	m := &paymentDatamodel.PaymentPeriod{
		ID:          p.ID,
		DonorID:     p.DonorID,
		JalaliYear:  p.Period.Year,
		JalaliMonth: p.Period.Month,
		Status:      string(p.Status),
		SubmittedAt: p.SubmittedAt,
		DecidedAt:   p.DecidedAt,
	}
	if p.ReceiptRef != "" {
		ref := p.ReceiptRef
		m.ReceiptRef = &ref
	}
	if p.ReceiptFileID != "" {
		fileID := p.ReceiptFileID
		m.ReceiptFileID = &fileID
	}
	return m
}

func FromDataModel(m *paymentDatamodel.PaymentPeriod) *Payment {
	p := &Payment{
		ID:          m.ID,
		DonorID:     m.DonorID,
		Period:      jalali.Period{Year: m.JalaliYear, Month: m.JalaliMonth},
		Status:      Status(m.Status),
		SubmittedAt: m.SubmittedAt,
		DecidedAt:   m.DecidedAt,
	}
	if m.ReceiptRef != nil {
		p.ReceiptRef = *m.ReceiptRef
	}
	if m.ReceiptFileID != nil {
		p.ReceiptFileID = *m.ReceiptFileID
	}
	return p
}

func FromDataModelSlice(rows []*paymentDatamodel.PaymentPeriod) []*Payment {
	result := make([]*Payment, len(rows))
	for i, row := range rows {
		result[i] = FromDataModel(row)
	}
	return result
}

func TransitionFromDataModel(m *paymentDatamodel.PaymentTransition) *Transition {
	return &Transition{
		ID:         m.ID,
		PaymentID:  m.PaymentID,
		From:       Status(m.FromStatus),
		To:         Status(m.ToStatus),
		ApprovalID: m.ApprovalID,
		CreatedAt:  m.CreatedAt,
	}
}
