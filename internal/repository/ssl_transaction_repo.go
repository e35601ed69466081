package repository

import (
	"context"
	"errors"
	"time"

	"recruitdesk/internal/model"

	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("gateway transaction not found")

type SSLTransactionRepository struct {
	db *gorm.DB
}

func NewSSLTransactionRepository(db *gorm.DB) *SSLTransactionRepository {
	return &SSLTransactionRepository{db: db}
}

// Create persists the pending handshake row. Happens before the external
// gateway call so a crash mid-handshake still leaves a traceable record.
func (r *SSLTransactionRepository) Create(ctx context.Context, txn *model.SSLTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *SSLTransactionRepository) GetByTranID(ctx context.Context, tranID string) (*model.SSLTransaction, error) {
	var txn model.SSLTransaction
	err := r.db.WithContext(ctx).Where("tran_id = ?", tranID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// MarkTerminal moves pending -> target as a single conditional update. The
// returned bool reports whether this call won the transition; a duplicate
// callback finds zero rows to update and must not rerun the financial side
// effect. This is what closes the check-then-act window between two
// near-simultaneous callbacks.
func (r *SSLTransactionRepository) MarkTerminal(ctx context.Context, tx *gorm.DB, tranID, target string) (bool, error) {
	if !model.TerminalSSLTxnStatus(target) {
		return false, errors.New("invalid terminal status: " + target)
	}
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.SSLTransaction{}).
		Where("tran_id = ? AND status = ?", tranID, model.SSLTxnStatusPending).
		Update("status", target)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountStalePending reports handshakes stuck pending past the threshold, e.g.
// when both the browser redirect and the IPN were lost.
func (r *SSLTransactionRepository) CountStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.SSLTransaction{}).
		Where("status = ? AND created_at < ?", model.SSLTxnStatusPending, olderThan).
		Count(&count).Error
	return count, err
}
