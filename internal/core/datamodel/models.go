// Package datamodel groups the persisted row shapes of every table.
package datamodel

import (
	"gorm.io/gorm"

	"github.com/frahmantamala/charity-reminder/internal/core/datamodel/approval"
	"github.com/frahmantamala/charity-reminder/internal/core/datamodel/donor"
	"github.com/frahmantamala/charity-reminder/internal/core/datamodel/payment"
	"github.com/frahmantamala/charity-reminder/internal/core/datamodel/schedule"
)

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		&donor.Donor{},
		&payment.PaymentPeriod{},
		&payment.PaymentTransition{},
		&approval.PendingApproval{},
		&schedule.TriggerMarker{},
	}
}

// AutoMigrate creates the schema on engines that are not managed by goose (sqlite).
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
