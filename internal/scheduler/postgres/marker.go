package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/charity-reminder/internal/core/datamodel/schedule"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/scheduler"
)

type MarkerRepository struct {
	db *gorm.DB
}

func NewMarkerRepository(db *gorm.DB) scheduler.MarkerRepository {
	return &MarkerRepository{db: db}
}

func (r *MarkerRepository) LastFired(ctx context.Context, kind scheduler.Kind) (jalali.Date, bool, error) {
	var row schedule.TriggerMarker
	err := r.db.WithContext(ctx).Where("kind = ?", string(kind)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jalali.Date{}, false, nil
		}
		return jalali.Date{}, false, err
	}

	date, err := jalali.Parse(row.LastFired)
	if err != nil {
		return jalali.Date{}, false, fmt.Errorf("marker %s holds %q: %w", kind, row.LastFired, err)
	}
	return date, true, nil
}

func (r *MarkerRepository) Advance(ctx context.Context, kind scheduler.Kind, date jalali.Date) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current schedule.TriggerMarker
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("kind = ?", string(kind)).
			First(&current).Error
		switch {
		case err == nil && current.LastFired == date.String():
			return nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		row := &schedule.TriggerMarker{Kind: string(kind), LastFired: date.String()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_fired", "updated_at"}),
		}).Create(row).Error
	})
}

func (r *MarkerRepository) List(ctx context.Context) ([]*scheduler.Marker, error) {
	var rows []*schedule.TriggerMarker
	if err := r.db.WithContext(ctx).Order("kind ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	markers := make([]*scheduler.Marker, 0, len(rows))
	for _, row := range rows {
		date, err := jalali.Parse(row.LastFired)
		if err != nil {
			return nil, fmt.Errorf("marker %s holds %q: %w", row.Kind, row.LastFired, err)
		}
		markers = append(markers, &scheduler.Marker{
			Kind:      scheduler.Kind(row.Kind),
			LastFired: date,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return markers, nil
}
