package service

import (
	"context"
	"testing"

	"recruitdesk/internal/gateway/sslcommerz"
	"recruitdesk/internal/model"
	"recruitdesk/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB returns a gorm handle backed by sqlmock. Store calls are faked
// out, so the mock only ever sees transaction control statements.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
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

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type fakeCandidateStore struct {
	candidate *model.Candidate
	getErr    error
	applied   []decimal.Decimal
	applyErr  error
}

func (f *fakeCandidateStore) GetByID(ctx context.Context, id int64) (*model.Candidate, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.candidate == nil || f.candidate.ID != id {
		return nil, repository.ErrCandidateNotFound
	}
	return f.candidate, nil
}

func (f *fakeCandidateStore) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Candidate, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeCandidateStore) ApplyPayment(ctx context.Context, tx *gorm.DB, id int64, amount decimal.Decimal) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, amount)
	f.candidate.TotalPaid = f.candidate.TotalPaid.Add(amount)
	f.candidate.DueAmount = f.candidate.PackageAmount.Sub(f.candidate.TotalPaid)
	return nil
}

type fakePaymentStore struct {
	created   []*model.Payment
	createErr error
	byTranID  map[string]*model.Payment
	listed    []*model.Payment
}

func (f *fakePaymentStore) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	if f.createErr != nil {
		return f.createErr
	}
	payment.ID = int64(len(f.created) + 1)
	f.created = append(f.created, payment)
	return nil
}

func (f *fakePaymentStore) GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	if p, ok := f.byTranID[transactionID]; ok {
		return p, nil
	}
	return nil, repository.ErrPaymentNotFound
}

func (f *fakePaymentStore) ListByCandidate(ctx context.Context, candidateID int64) ([]*model.Payment, error) {
	return f.listed, nil
}

// fakeSSLTxnStore mimics the conditional pending -> terminal update: only the
// first caller to move a pending row wins.
type fakeSSLTxnStore struct {
	txns      map[string]*model.SSLTransaction
	createErr error
}

func newFakeSSLTxnStore() *fakeSSLTxnStore {
	return &fakeSSLTxnStore{txns: map[string]*model.SSLTransaction{}}
}

func (f *fakeSSLTxnStore) Create(ctx context.Context, txn *model.SSLTransaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	txn.ID = int64(len(f.txns) + 1)
	f.txns[txn.TranID] = txn
	return nil
}

func (f *fakeSSLTxnStore) GetByTranID(ctx context.Context, tranID string) (*model.SSLTransaction, error) {
	if txn, ok := f.txns[tranID]; ok {
		return txn, nil
	}
	return nil, repository.ErrTransactionNotFound
}

func (f *fakeSSLTxnStore) MarkTerminal(ctx context.Context, tx *gorm.DB, tranID, target string) (bool, error) {
	txn, ok := f.txns[tranID]
	if !ok || txn.Status != model.SSLTxnStatusPending {
		return false, nil
	}
	txn.Status = target
	return true, nil
}

type fakeOutboxStore struct {
	messages []*model.OutboxMessage
}

func (f *fakeOutboxStore) Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error {
	f.messages = append(f.messages, msg)
	return nil
}

type fakeGatewayClient struct {
	pageURL  string
	err      error
	requests []sslcommerz.InitRequest
}

func (f *fakeGatewayClient) InitiateSession(ctx context.Context, req sslcommerz.InitRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.pageURL, nil
}
