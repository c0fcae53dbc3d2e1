package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/approval"
	approvalDatamodel "github.com/frahmantamala/charity-reminder/internal/core/datamodel/approval"
)

// ApprovalRepository implements approval.Repository using GORM. Other
// repositories build one on their transaction handle so approvals open and
// close atomically with the state change they guard.
type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Open(ctx context.Context, a *approval.Approval) error {
	a.Status = approval.StatusOpen
	a.Outcome = ""
	a.ClosedAt = nil
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	row := approval.ToDataModel(a)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("open %s approval for donor %d: %w", a.Kind, a.DonorID, err)
	}
	a.ID = row.ID
	return nil
}

// Close answers an open approval. A second answer yields ErrStaleApproval; an
// approval of another kind is reported as not found.
func (r *ApprovalRepository) Close(ctx context.Context, id int64, kind approval.Kind, outcome string, at time.Time) (*approval.Approval, error) {
	res := r.db.WithContext(ctx).
		Model(&approvalDatamodel.PendingApproval{}).
		Where("id = ? AND kind = ? AND status = ?", id, string(kind), string(approval.StatusOpen)).
		Updates(map[string]interface{}{
			"status":    string(approval.StatusClosed),
			"outcome":   outcome,
			"closed_at": at,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("close approval %d: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.Kind != kind {
			return nil, fmt.Errorf("approval %d is a %s approval: %w", id, existing.Kind, internal.ErrApprovalNotFound)
		}
		return existing, fmt.Errorf("approval %d: %w", id, internal.ErrStaleApproval)
	}

	return r.GetByID(ctx, id)
}

func (r *ApprovalRepository) CloseOpenForDonor(ctx context.Context, donorID int64, kind approval.Kind, outcome string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&approvalDatamodel.PendingApproval{}).
		Where("donor_id = ? AND kind = ? AND status = ?", donorID, string(kind), string(approval.StatusOpen)).
		Updates(map[string]interface{}{
			"status":    string(approval.StatusClosed),
			"outcome":   outcome,
			"closed_at": at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("close open approvals for donor %d: %w", donorID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id int64) (*approval.Approval, error) {
	var row approvalDatamodel.PendingApproval
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrApprovalNotFound
		}
		return nil, err
	}
	return approval.FromDataModel(&row), nil
}

// ListOpen returns open approvals oldest first.
func (r *ApprovalRepository) ListOpen(ctx context.Context) ([]*approval.Approval, error) {
	var rows []*approvalDatamodel.PendingApproval
	err := r.db.WithContext(ctx).
		Where("status = ?", string(approval.StatusOpen)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]*approval.Approval, len(rows))
	for i, row := range rows {
		result[i] = approval.FromDataModel(row)
	}
	return result, nil
}
