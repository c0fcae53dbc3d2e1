package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/approval"
	approvalPostgres "github.com/frahmantamala/charity-reminder/internal/approval/postgres"
	"github.com/frahmantamala/charity-reminder/internal/core/datamodel"
	paymentDatamodel "github.com/frahmantamala/charity-reminder/internal/core/datamodel/payment"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) InTx(ctx context.Context, fn func(repo payment.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PaymentRepository{db: tx})
	})
}

func (r *PaymentRepository) Approvals() approval.Repository {
	return approvalPostgres.NewApprovalRepository(r.db)
}

// Create inserts a new period row. Losing a race on the (donor, period) unique
// index is reported as ErrDuplicateSubmission.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	row := payment.ToDataModel(p)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if datamodel.IsUniqueViolation(err) {
			return fmt.Errorf("payment %s for donor %d: %w", p.Period, p.DonorID, internal.ErrDuplicateSubmission)
		}
		return err
	}
	p.ID = row.ID
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	row := payment.ToDataModel(p)
	res := r.db.WithContext(ctx).
		Model(&paymentDatamodel.PaymentPeriod{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"status":          row.Status,
			"receipt_ref":     row.ReceiptRef,
			"receipt_file_id": row.ReceiptFileID,
			"submitted_at":    row.SubmittedAt,
			"decided_at":      row.DecidedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) RecordTransition(ctx context.Context, t *payment.Transition) error {
	row := &paymentDatamodel.PaymentTransition{
		PaymentID:  t.PaymentID,
		FromStatus: string(t.From),
		ToStatus:   string(t.To),
		ApprovalID: t.ApprovalID,
		CreatedAt:  t.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	t.ID = row.ID
	return nil
}

func (r *PaymentRepository) Get(ctx context.Context, donorID int64, period jalali.Period) (*payment.Payment, error) {
	return r.first(r.db.WithContext(ctx).
		Where("donor_id = ? AND jalali_year = ? AND jalali_month = ?", donorID, period.Year, period.Month))
}

func (r *PaymentRepository) GetForUpdate(ctx context.Context, donorID int64, period jalali.Period) (*payment.Payment, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("donor_id = ? AND jalali_year = ? AND jalali_month = ?", donorID, period.Year, period.Month))
}

func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*payment.Payment, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *PaymentRepository) ListByPeriod(ctx context.Context, period jalali.Period) ([]*payment.Payment, error) {
	var rows []*paymentDatamodel.PaymentPeriod
	err := r.db.WithContext(ctx).
		Where("jalali_year = ? AND jalali_month = ?", period.Year, period.Month).
		Order("donor_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return payment.FromDataModelSlice(rows), nil
}

func (r *PaymentRepository) ListByDonor(ctx context.Context, donorID int64) ([]*payment.Payment, error) {
	var rows []*paymentDatamodel.PaymentPeriod
	err := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("jalali_year DESC, jalali_month DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return payment.FromDataModelSlice(rows), nil
}

func (r *PaymentRepository) Transitions(ctx context.Context, paymentID int64) ([]*payment.Transition, error) {
	var rows []*paymentDatamodel.PaymentTransition
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]*payment.Transition, len(rows))
	for i, row := range rows {
		result[i] = payment.TransitionFromDataModel(row)
	}
	return result, nil
}

func (r *PaymentRepository) first(q *gorm.DB) (*payment.Payment, error) {
	var row paymentDatamodel.PaymentPeriod
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment.FromDataModel(&row), nil
}
