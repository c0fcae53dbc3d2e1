package schedule

import "time"

// TriggerMarker stores the last Jalali date ("YYYY/MM/DD") a trigger fired on.
type TriggerMarker struct {
	Kind      string    `gorm:"column:kind;primaryKey"`
	LastFired string    `gorm:"column:last_fired;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TriggerMarker) TableName() string {
	return "scheduler_markers"
}
