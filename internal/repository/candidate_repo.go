package repository

import (
	"context"
	"errors"

	"recruitdesk/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCandidateNotFound = errors.New("candidate not found")

type CandidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

func (r *CandidateRepository) Create(ctx context.Context, candidate *model.Candidate) error {
	return r.db.WithContext(ctx).Create(candidate).Error
}

func (r *CandidateRepository) GetByID(ctx context.Context, id int64) (*model.Candidate, error) {
	var candidate model.Candidate
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	return &candidate, nil
}

// GetByIDForUpdate loads the candidate row under a row-level lock. Must be
// called inside a transaction; concurrent ledger writers touching the same
// candidate serialize here.
func (r *CandidateRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Candidate, error) {
	var candidate model.Candidate
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	return &candidate, nil
}

// ApplyPayment is the single place the balance arithmetic lives. MySQL
// evaluates SET clauses left to right, so due_amount is recomputed from the
// already-updated total_paid and the invariant
// due_amount == package_amount - total_paid holds within one statement.
func (r *CandidateRepository) ApplyPayment(ctx context.Context, tx *gorm.DB, id int64, amount decimal.Decimal) error {
	result := tx.WithContext(ctx).Exec(
		"UPDATE candidates SET total_paid = total_paid + ?, due_amount = package_amount - total_paid WHERE id = ? AND is_deleted = ?",
		amount, id, false,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

// SetPackageAmount changes the package price and recomputes the due from the
// existing total_paid in the same statement.
func (r *CandidateRepository) SetPackageAmount(ctx context.Context, tx *gorm.DB, id int64, amount decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).Exec(
		"UPDATE candidates SET package_amount = ?, due_amount = ? - total_paid WHERE id = ? AND is_deleted = ?",
		amount, amount, id, false,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

// SetBalances overwrites the cached totals directly. Used only by the
// reconciliation job when repairing drift against the ledger, inside a
// transaction holding the candidate row lock.
func (r *CandidateRepository) SetBalances(ctx context.Context, tx *gorm.DB, id int64, totalPaid decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).Exec(
		"UPDATE candidates SET total_paid = ?, due_amount = package_amount - ? WHERE id = ? AND is_deleted = ?",
		totalPaid, totalPaid, id, false,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

func (r *CandidateRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Candidate{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

// SoftDelete flags the row instead of removing it; payment history must stay
// joinable for reports.
func (r *CandidateRepository) SoftDelete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Candidate{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

// List returns candidates page by page. A non-nil agentID narrows the result
// to that agent's candidates (role-scoped visibility).
func (r *CandidateRepository) List(ctx context.Context, agentID *int64, page, pageSize int) ([]*model.Candidate, int64, error) {
	var candidates []*model.Candidate
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Candidate{}).Where("is_deleted = ?", false)
	if agentID != nil {
		query = query.Where("agent_id = ?", *agentID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&candidates).Error

	return candidates, total, err
}

// ListIDs streams candidate ids in batches for the reconciliation job.
func (r *CandidateRepository) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.Candidate{}).
		Where("id > ? AND is_deleted = ?", afterID, false).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
