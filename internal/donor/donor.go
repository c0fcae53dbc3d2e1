package donor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/charity-reminder/internal/approval"
	donorDatamodel "github.com/frahmantamala/charity-reminder/internal/core/datamodel/donor"
)

// Status is the donor verification state. It only moves forward
// (unverified -> pending_admin -> verified) except through an explicit reset.
type Status string

const (
	StatusUnverified   Status = "unverified"
	StatusPendingAdmin Status = "pending_admin"
	StatusVerified     Status = "verified"
)

type Donor struct {
	ID           int64           `json:"id"`
	PIN          string          `json:"-"`
	FullName     string          `json:"full_name"`
	ChatID       *int64          `json:"chat_id,omitempty"`
	PledgeAmount decimal.Decimal `json:"pledge_amount"`
	DonationLink string          `json:"donation_link"`
	Status       Status          `json:"status"`
	VerifiedAt   *time.Time      `json:"verified_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (d *Donor) IsVerified() bool {
	return d.Status == StatusVerified
}

// BoundTo reports whether the donor's chat identity is chatID.
func (d *Donor) BoundTo(chatID int64) bool {
	return d.ChatID != nil && *d.ChatID == chatID
}

// Repository persists donors. InTx hands fn a repository bound to a single
// transaction; everything fn does commits or rolls back together.
type Repository interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
	Approvals() approval.Repository

	Create(ctx context.Context, d *Donor) error
	GetByID(ctx context.Context, id int64) (*Donor, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Donor, error)
	FindByPIN(ctx context.Context, pin string) (*Donor, error)
	GetByChatID(ctx context.Context, chatID int64) (*Donor, error)
	ListVerified(ctx context.Context) ([]*Donor, error)
	List(ctx context.Context) ([]*Donor, error)
	ExistingPINs(ctx context.Context, pins []string) (map[string]bool, error)
	UpdateVerification(ctx context.Context, id int64, status Status, chatID *int64, verifiedAt *time.Time) error
}

func ToDataModel(d *Donor) *donorDatamodel.Donor {
	return &donorDatamodel.Donor{
		ID:           d.ID,
		PIN:          d.PIN,
		FullName:     d.FullName,
		ChatID:       d.ChatID,
		PledgeAmount: d.PledgeAmount,
		DonationLink: d.DonationLink,
		Status:       string(d.Status),
		VerifiedAt:   d.VerifiedAt,
		CreatedAt:    d.CreatedAt,
	}
}

func FromDataModel(m *donorDatamodel.Donor) *Donor {
	return &Donor{
		ID:           m.ID,
		PIN:          m.PIN,
		FullName:     m.FullName,
		ChatID:       m.ChatID,
		PledgeAmount: m.PledgeAmount,
		DonationLink: m.DonationLink,
		Status:       Status(m.Status),
		VerifiedAt:   m.VerifiedAt,
		CreatedAt:    m.CreatedAt,
	}
}

func FromDataModelSlice(rows []*donorDatamodel.Donor) []*Donor {
	result := make([]*Donor, len(rows))
	for i, row := range rows {
		result[i] = FromDataModel(row)
	}
	return result
}
