package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/approval"
	approvalPostgres "github.com/frahmantamala/charity-reminder/internal/approval/postgres"
	"github.com/frahmantamala/charity-reminder/internal/core/datamodel"
	donorDatamodel "github.com/frahmantamala/charity-reminder/internal/core/datamodel/donor"
	"github.com/frahmantamala/charity-reminder/internal/donor"
)

type DonorRepository struct {
	db *gorm.DB
}

func NewDonorRepository(db *gorm.DB) donor.Repository {
	return &DonorRepository{db: db}
}

func (r *DonorRepository) InTx(ctx context.Context, fn func(repo donor.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DonorRepository{db: tx})
	})
}

func (r *DonorRepository) Approvals() approval.Repository {
	return approvalPostgres.NewApprovalRepository(r.db)
}

func (r *DonorRepository) Create(ctx context.Context, d *donor.Donor) error {
	if d.Status == "" {
		d.Status = donor.StatusUnverified
	}
	row := donor.ToDataModel(d)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if datamodel.IsUniqueViolation(err) {
			return fmt.Errorf("pin %s: %w", d.PIN, internal.ErrSeedConflict)
		}
		return err
	}
	d.ID = row.ID
	d.CreatedAt = row.CreatedAt
	return nil
}

func (r *DonorRepository) GetByID(ctx context.Context, id int64) (*donor.Donor, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetByIDForUpdate locks the donor row for the rest of the transaction.
func (r *DonorRepository) GetByIDForUpdate(ctx context.Context, id int64) (*donor.Donor, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

// FindByPIN matches the PIN exactly, then ignoring leading zeros.
func (r *DonorRepository) FindByPIN(ctx context.Context, pin string) (*donor.Donor, error) {
	d, err := r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("pin = ?", pin))
	if err == nil || !errors.Is(err, internal.ErrDonorNotFound) {
		return d, err
	}

	trimmed, ok := donor.PINFallback(pin)
	if !ok {
		return nil, err
	}
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("LTRIM(pin, '0') = ?", trimmed).
		Order("id ASC"))
}

func (r *DonorRepository) GetByChatID(ctx context.Context, chatID int64) (*donor.Donor, error) {
	return r.first(r.db.WithContext(ctx).Where("chat_id = ?", chatID))
}

func (r *DonorRepository) ListVerified(ctx context.Context) ([]*donor.Donor, error) {
	var rows []*donorDatamodel.Donor
	err := r.db.WithContext(ctx).
		Where("status = ?", string(donor.StatusVerified)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return donor.FromDataModelSlice(rows), nil
}

func (r *DonorRepository) List(ctx context.Context) ([]*donor.Donor, error) {
	var rows []*donorDatamodel.Donor
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return donor.FromDataModelSlice(rows), nil
}

func (r *DonorRepository) ExistingPINs(ctx context.Context, pins []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(pins) == 0 {
		return existing, nil
	}

	var found []string
	err := r.db.WithContext(ctx).
		Model(&donorDatamodel.Donor{}).
		Where("pin IN ?", pins).
		Pluck("pin", &found).Error
	if err != nil {
		return nil, err
	}
	for _, pin := range found {
		existing[pin] = true
	}
	return existing, nil
}

func (r *DonorRepository) UpdateVerification(ctx context.Context, id int64, status donor.Status, chatID *int64, verifiedAt *time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&donorDatamodel.Donor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      string(status),
			"chat_id":     chatID,
			"verified_at": verifiedAt,
		})
	if res.Error != nil {
		if datamodel.IsUniqueViolation(res.Error) {
			return fmt.Errorf("bind donor %d: %w", id, internal.ErrAlreadyBound)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrDonorNotFound
	}
	return nil
}

func (r *DonorRepository) first(q *gorm.DB) (*donor.Donor, error) {
	var row donorDatamodel.Donor
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrDonorNotFound
		}
		return nil, err
	}
	return donor.FromDataModel(&row), nil
}
