package donor

import (
	"time"

	"github.com/shopspring/decimal"
)

type Donor struct {
	ID           int64           `gorm:"primaryKey"`
	PIN          string          `gorm:"column:pin;not null;uniqueIndex"`
	FullName     string          `gorm:"column:full_name;not null"`
	ChatID       *int64          `gorm:"column:chat_id;uniqueIndex"`
	PledgeAmount decimal.Decimal `gorm:"column:pledge_amount;type:numeric(20,0);not null"`
	DonationLink string          `gorm:"column:donation_link"`
	Status       string          `gorm:"column:status;not null;default:unverified"`
	VerifiedAt   *time.Time      `gorm:"column:verified_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Donor) TableName() string {
	return "donors"
}
