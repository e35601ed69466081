package job

import (
	"context"
	"testing"

	"recruitdesk/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

func reconcilerConfig(repair bool) *config.Config {
	cfg := &config.Config{}
	cfg.Business.RepairBalanceDrift = repair
	return cfg
}

func candidateRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "package_amount", "total_paid", "due_amount"}).
		AddRow(10, "100000", "90000", "10000")
}

func ledgerSumRow(sum string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"sum"}).AddRow(sum)
}

func TestCheckCandidateNoDrift(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewReconciler(db, reconcilerConfig(true), zap.NewNop())

	mock.ExpectQuery("SELECT \\* FROM `candidates` WHERE id = \\? AND is_deleted = \\?").
		WillReturnRows(candidateRow())
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `payments`").
		WillReturnRows(ledgerSumRow("90000"))

	drifted := r.checkCandidate(context.Background(), 10)
	assert.False(t, drifted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckCandidateRepairsDriftUnderRowLock(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewReconciler(db, reconcilerConfig(true), zap.NewNop())

	// Detection pass: cached 90000 vs ledger 120000.
	mock.ExpectQuery("SELECT \\* FROM `candidates` WHERE id = \\? AND is_deleted = \\?").
		WillReturnRows(candidateRow())
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `payments`").
		WillReturnRows(ledgerSumRow("120000"))

	// Repair: the sum is re-derived inside a transaction holding the
	// candidate row lock, so a concurrent payment cannot be clobbered.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `candidates` .* FOR UPDATE").
		WillReturnRows(candidateRow())
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `payments`").
		WillReturnRows(ledgerSumRow("120000"))
	mock.ExpectExec("UPDATE candidates SET total_paid = \\?, due_amount = package_amount - \\?").
		WithArgs("120000", "120000", int64(10), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	drifted := r.checkCandidate(context.Background(), 10)
	assert.True(t, drifted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckCandidateDriftDetectionOnlyWhenRepairDisabled(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewReconciler(db, reconcilerConfig(false), zap.NewNop())

	mock.ExpectQuery("SELECT \\* FROM `candidates` WHERE id = \\? AND is_deleted = \\?").
		WillReturnRows(candidateRow())
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `payments`").
		WillReturnRows(ledgerSumRow("120000"))

	drifted := r.checkCandidate(context.Background(), 10)
	assert.True(t, drifted)
	// No transaction, no UPDATE: logging only.
	assert.NoError(t, mock.ExpectationsWereMet())
}
