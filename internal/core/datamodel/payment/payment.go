package payment

import "time"

// PaymentPeriod is one donor's submission for one Jalali month. Rows are never
// deleted; status changes are appended to PaymentTransition.
type PaymentPeriod struct {
	ID            int64      `gorm:"primaryKey"`
	DonorID       int64      `gorm:"column:donor_id;not null;uniqueIndex:idx_payment_periods_donor_period"`
	JalaliYear    int        `gorm:"column:jalali_year;not null;uniqueIndex:idx_payment_periods_donor_period"`
	JalaliMonth   int        `gorm:"column:jalali_month;not null;uniqueIndex:idx_payment_periods_donor_period"`
	Status        string     `gorm:"column:status;not null;default:pending"`
	ReceiptRef    *string    `gorm:"column:receipt_ref"`
	ReceiptFileID *string    `gorm:"column:receipt_file_id"`
	SubmittedAt   time.Time  `gorm:"column:submitted_at"`
	DecidedAt     *time.Time `gorm:"column:decided_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (PaymentPeriod) TableName() string {
	return "payment_periods"
}

type PaymentTransition struct {
	ID         int64     `gorm:"primaryKey"`
	PaymentID  int64     `gorm:"column:payment_id;not null;index"`
	FromStatus string    `gorm:"column:from_status;not null"`
	ToStatus   string    `gorm:"column:to_status;not null"`
	ApprovalID *int64    `gorm:"column:approval_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PaymentTransition) TableName() string {
	return "payment_transitions"
}
