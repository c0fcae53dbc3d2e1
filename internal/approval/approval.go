package approval

import (
	"context"
	"time"

	approvalDatamodel "github.com/frahmantamala/charity-reminder/internal/core/datamodel/approval"
)

// Kind tells which state machine an approval belongs to.
type Kind string

const (
	KindPayment Kind = "payment"
	KindDonor   Kind = "donor"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Outcomes recorded on closed approvals.
const (
	OutcomeApproved = "approved"
	OutcomeFailed   = "failed"
	OutcomeDenied   = "denied"
	OutcomeReset    = "reset"
)

// Approval is one outstanding (or answered) admin decision.
type Approval struct {
	ID        int64      `json:"id"`
	Kind      Kind       `json:"kind"`
	DonorID   int64      `json:"donor_id"`
	PaymentID *int64     `json:"payment_id,omitempty"`
	Status    Status     `json:"status"`
	Outcome   string     `json:"outcome,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

func (a *Approval) IsOpen() bool {
	return a.Status == StatusOpen
}

// Repository persists approvals. Close and CloseOpenForDonor only ever move an
// approval from open to closed; a closed approval is never reopened.
type Repository interface {
	Open(ctx context.Context, a *Approval) error
	Close(ctx context.Context, id int64, kind Kind, outcome string, at time.Time) (*Approval, error)
	CloseOpenForDonor(ctx context.Context, donorID int64, kind Kind, outcome string, at time.Time) (int64, error)
	GetByID(ctx context.Context, id int64) (*Approval, error)
	ListOpen(ctx context.Context) ([]*Approval, error)
}

func ToDataModel(a *Approval) *approvalDatamodel.PendingApproval {
	m := &approvalDatamodel.PendingApproval{
		ID:        a.ID,
		Kind:      string(a.Kind),
		DonorID:   a.DonorID,
		PaymentID: a.PaymentID,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		ClosedAt:  a.ClosedAt,
	}
	if a.Outcome != "" {
		outcome := a.Outcome
		m.Outcome = &outcome
	}
	return m
}

func FromDataModel(m *approvalDatamodel.PendingApproval) *Approval {
	a := &Approval{
		ID:        m.ID,
		Kind:      Kind(m.Kind),
		DonorID:   m.DonorID,
		PaymentID: m.PaymentID,
		Status:    Status(m.Status),
		CreatedAt: m.CreatedAt,
		ClosedAt:  m.ClosedAt,
	}
	if m.Outcome != nil {
		a.Outcome = *m.Outcome
	}
	return a
}
