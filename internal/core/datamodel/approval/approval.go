package approval

import "time"

type PendingApproval struct {
	ID        int64      `gorm:"primaryKey"`
	Kind      string     `gorm:"column:kind;not null;index:idx_pending_approvals_open"`
	DonorID   int64      `gorm:"column:donor_id;not null"`
	PaymentID *int64     `gorm:"column:payment_id"`
	Status    string     `gorm:"column:status;not null;default:open;index:idx_pending_approvals_open"`
	Outcome   *string    `gorm:"column:outcome"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	ClosedAt  *time.Time `gorm:"column:closed_at"`
}

func (PendingApproval) TableName() string {
	return "pending_approvals"
}
