package repository

import (
	"context"
	"testing"

	"recruitdesk/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysqldriver.New(mysqldriver.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

func TestApplyPaymentRecomputesDueInOneStatement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCandidateRepository(db)

	// total_paid bumps first, then due_amount is derived from the updated
	// value; the invariant holds inside a single UPDATE.
	mock.ExpectExec("UPDATE candidates SET total_paid = total_paid \\+ \\?, due_amount = package_amount - total_paid WHERE id = \\? AND is_deleted = \\?").
		WithArgs("30000", int64(10), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyPayment(context.Background(), db, 10, decimal.NewFromInt(30000))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentUnknownCandidate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCandidateRepository(db)

	mock.ExpectExec("UPDATE candidates SET total_paid").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyPayment(context.Background(), db, 99, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestMarkTerminalWinsOnlyFromPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSSLTransactionRepository(db)

	t.Run("first caller wins", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `ssl_transactions` SET").
			WithArgs("success", sqlmock.AnyArg(), "SSLTEST001", model.SSLTxnStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		won, err := repo.MarkTerminal(context.Background(), nil, "SSLTEST001", model.SSLTxnStatusSuccess)
		require.NoError(t, err)
		assert.True(t, won)
	})

	t.Run("duplicate finds no pending row", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `ssl_transactions` SET").
			WithArgs("success", sqlmock.AnyArg(), "SSLTEST001", model.SSLTxnStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		won, err := repo.MarkTerminal(context.Background(), nil, "SSLTEST001", model.SSLTxnStatusSuccess)
		require.NoError(t, err)
		assert.False(t, won)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkTerminalRejectsNonTerminalTarget(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewSSLTransactionRepository(db)

	_, err := repo.MarkTerminal(context.Background(), nil, "SSLTEST001", model.SSLTxnStatusPending)
	assert.Error(t, err)

	_, err = repo.MarkTerminal(context.Background(), nil, "SSLTEST001", "refunded")
	assert.Error(t, err)
}

func TestCreatePaymentTranslatesDuplicateKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	tranID := "SSLTEST001"
	payment := &model.Payment{
		CandidateID:   10,
		Amount:        decimal.NewFromInt(30000),
		PaymentType:   model.PaymentTypeVisa,
		PaymentMethod: model.PaymentMethodSSLCommerz,
		TransactionID: &tranID,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `payments`").
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), nil, payment)
	assert.ErrorIs(t, err, ErrDuplicatePayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}
