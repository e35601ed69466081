package repository

import (
	"context"
	"errors"

	"recruitdesk/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrDuplicatePayment = errors.New("payment already recorded for this transaction")
)

// PaymentRepository only ever inserts and reads. The ledger has no update or
// delete path by design.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create appends a ledger row. A second insert with the same transaction_id
// trips the unique index and comes back as ErrDuplicatePayment; callers treat
// that as "already credited", not as a failure.
func (r *PaymentRepository) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	if tx == nil {
		tx = r.db
	}
	err := tx.WithContext(ctx).Create(payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicatePayment
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) ListByCandidate(ctx context.Context, candidateID int64) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// SumByCandidate recomputes the paid total from the ledger itself; the
// reconciliation job compares it against the cached candidate totals. Pass a
// tx to read inside a transaction that holds the candidate row lock.
func (r *PaymentRepository) SumByCandidate(ctx context.Context, tx *gorm.DB, candidateID int64) (decimal.Decimal, error) {
	if tx == nil {
		tx = r.db
	}
	var sum decimal.NullDecimal
	err := tx.WithContext(ctx).
		Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("candidate_id = ?", candidateID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
