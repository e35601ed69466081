package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"recruitdesk/internal/authz"
	"recruitdesk/internal/gateway/sslcommerz"
	"recruitdesk/internal/model"
	"recruitdesk/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGatewayService(t *testing.T, candidates *fakeCandidateStore, payments *fakePaymentStore, transactions *fakeSSLTxnStore, outbox *fakeOutboxStore, gateway *fakeGatewayClient, commits int) *GatewayService {
	db, mock := newTestDB(t)
	for i := 0; i < commits; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	return &GatewayService{
		db:           db,
		cfg:          testConfig(true),
		log:          testLogger(),
		candidates:   candidates,
		payments:     payments,
		transactions: transactions,
		outbox:       outbox,
		gateway:      gateway,
	}
}

func TestInitiatePayment(t *testing.T) {
	accountant := authz.Principal{UserID: 3, Role: authz.RoleAccountant}

	candidates := &fakeCandidateStore{candidate: testCandidate(5)}
	transactions := newFakeSSLTxnStore()
	gateway := &fakeGatewayClient{pageURL: "https://sandbox.sslcommerz.com/pay/abc123"}
	svc := newTestGatewayService(t, candidates, &fakePaymentStore{}, transactions, &fakeOutboxStore{}, gateway, 0)

	pageURL, err := svc.InitiatePayment(context.Background(), accountant, &InitiateRequest{
		CandidateID:     10,
		Amount:          decimal.NewFromInt(25000),
		PaymentType:     model.PaymentTypeTicket,
		CallbackBaseURL: "https://api.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.sslcommerz.com/pay/abc123", pageURL)

	// A pending transaction exists with a fresh tran_id before the gateway
	// was asked for a session.
	require.Len(t, transactions.txns, 1)
	require.Len(t, gateway.requests, 1)
	req := gateway.requests[0]
	txn := transactions.txns[req.TranID]
	require.NotNil(t, txn)
	assert.Equal(t, model.SSLTxnStatusPending, txn.Status)
	assert.True(t, strings.HasPrefix(txn.TranID, "SSL"))
	assert.True(t, txn.Amount.Equal(decimal.NewFromInt(25000)))

	assert.Equal(t, "BDT", req.Currency)
	assert.Equal(t, "https://api.example.com/api/v1/sslcommerz/success", req.SuccessURL)
	assert.Equal(t, "https://api.example.com/api/v1/sslcommerz/ipn", req.IPNURL)
}

func TestInitiatePaymentGatewayFailureKeepsPendingRow(t *testing.T) {
	accountant := authz.Principal{UserID: 3, Role: authz.RoleAccountant}

	transactions := newFakeSSLTxnStore()
	gateway := &fakeGatewayClient{err: fmt.Errorf("%w: Store Credential Error", sslcommerz.ErrInitFailed)}
	svc := newTestGatewayService(t, &fakeCandidateStore{candidate: testCandidate(5)}, &fakePaymentStore{}, transactions, &fakeOutboxStore{}, gateway, 0)

	_, err := svc.InitiatePayment(context.Background(), accountant, &InitiateRequest{
		CandidateID:     10,
		Amount:          decimal.NewFromInt(25000),
		PaymentType:     model.PaymentTypeTicket,
		CallbackBaseURL: "https://api.example.com",
	})
	// The sentinel survives so the handler can surface the failedreason.
	require.ErrorIs(t, err, sslcommerz.ErrInitFailed)
	assert.Contains(t, err.Error(), "Store Credential Error")

	// The pending row stays for reconciliation to find.
	require.Len(t, transactions.txns, 1)
	for _, txn := range transactions.txns {
		assert.Equal(t, model.SSLTxnStatusPending, txn.Status)
	}
}

func TestInitiatePaymentAuthorization(t *testing.T) {
	transactions := newFakeSSLTxnStore()
	svc := &GatewayService{
		cfg:          testConfig(true),
		log:          testLogger(),
		candidates:   &fakeCandidateStore{candidate: testCandidate(5)},
		payments:     &fakePaymentStore{},
		transactions: transactions,
		outbox:       &fakeOutboxStore{},
		gateway:      &fakeGatewayClient{pageURL: "https://x"},
	}

	req := &InitiateRequest{
		CandidateID:     10,
		Amount:          decimal.NewFromInt(100),
		PaymentType:     model.PaymentTypeVisa,
		CallbackBaseURL: "https://api.example.com",
	}

	t.Run("data entry cannot initiate", func(t *testing.T) {
		_, err := svc.InitiatePayment(context.Background(), authz.Principal{UserID: 9, Role: authz.RoleDataEntry}, req)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("foreign agent cannot initiate", func(t *testing.T) {
		_, err := svc.InitiatePayment(context.Background(), authz.Principal{UserID: 7, Role: authz.RoleAgent}, req)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	assert.Empty(t, transactions.txns)
}

func pendingTxn(store *fakeSSLTxnStore, tranID string, candidateID int64, amount int64) {
	store.txns[tranID] = &model.SSLTransaction{
		ID:          1,
		CandidateID: candidateID,
		Amount:      decimal.NewFromInt(amount),
		PaymentType: model.PaymentTypeVisa,
		TranID:      tranID,
		Status:      model.SSLTxnStatusPending,
	}
}

func TestResolveCallbackSuccessCreditsOnce(t *testing.T) {
	candidates := &fakeCandidateStore{candidate: testCandidate(5)}
	payments := &fakePaymentStore{}
	transactions := newFakeSSLTxnStore()
	outbox := &fakeOutboxStore{}
	pendingTxn(transactions, "SSLTEST001", 10, 30000)

	// Two resolutions: browser redirect and IPN racing for the same tran_id.
	svc := newTestGatewayService(t, candidates, payments, transactions, outbox, &fakeGatewayClient{}, 2)

	first, err := svc.ResolveCallback(context.Background(), "SSLTEST001", model.SSLTxnStatusSuccess)
	require.NoError(t, err)
	assert.True(t, first.Credited)
	assert.Equal(t, int64(10), first.CandidateID)

	second, err := svc.ResolveCallback(context.Background(), "SSLTEST001", model.SSLTxnStatusSuccess)
	require.NoError(t, err)
	assert.False(t, second.Credited)

	// Exactly one ledger row and one balance application.
	require.Len(t, payments.created, 1)
	payment := payments.created[0]
	assert.Equal(t, model.PaymentMethodSSLCommerz, payment.PaymentMethod)
	require.NotNil(t, payment.TransactionID)
	assert.Equal(t, "SSLTEST001", *payment.TransactionID)
	require.Len(t, candidates.applied, 1)
	assert.True(t, candidates.candidate.TotalPaid.Equal(decimal.NewFromInt(30000)))
	assert.True(t, candidates.candidate.DueAmount.Equal(decimal.NewFromInt(70000)))

	assert.Equal(t, model.SSLTxnStatusSuccess, transactions.txns["SSLTEST001"].Status)
	assert.Len(t, outbox.messages, 1)
}

func TestResolveCallbackFailAndCancelDoNotCredit(t *testing.T) {
	for _, target := range []string{model.SSLTxnStatusFailed, model.SSLTxnStatusCancelled} {
		t.Run(target, func(t *testing.T) {
			candidates := &fakeCandidateStore{candidate: testCandidate(5)}
			payments := &fakePaymentStore{}
			transactions := newFakeSSLTxnStore()
			outbox := &fakeOutboxStore{}
			pendingTxn(transactions, "SSLTEST002", 10, 30000)

			// Two resolutions: the original and a replay.
			svc := newTestGatewayService(t, candidates, payments, transactions, outbox, &fakeGatewayClient{}, 2)

			result, err := svc.ResolveCallback(context.Background(), "SSLTEST002", target)
			require.NoError(t, err)
			assert.False(t, result.Credited)
			assert.Equal(t, target, transactions.txns["SSLTEST002"].Status)
			assert.Empty(t, payments.created)
			assert.Empty(t, candidates.applied)

			// The transition is still reportable downstream even though no
			// money moved.
			require.Len(t, outbox.messages, 1)
			assert.Contains(t, outbox.messages[0].Payload, model.EventGatewayResolved)
			assert.Contains(t, outbox.messages[0].Payload, target)

			// A replay finds the row already terminal and emits nothing more.
			_, err = svc.ResolveCallback(context.Background(), "SSLTEST002", target)
			require.NoError(t, err)
			assert.Len(t, outbox.messages, 1)
		})
	}
}

func TestResolveCallbackRollsBackWhenBalanceUpdateFails(t *testing.T) {
	// Ledger insert and balance recompute live in one transaction; if the
	// recompute fails nothing may commit.
	db, mock := newTestDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	candidates := &fakeCandidateStore{candidate: testCandidate(5), applyErr: errors.New("connection reset")}
	transactions := newFakeSSLTxnStore()
	pendingTxn(transactions, "SSLTEST005", 10, 30000)

	svc := &GatewayService{
		db:           db,
		cfg:          testConfig(true),
		log:          testLogger(),
		candidates:   candidates,
		payments:     &fakePaymentStore{},
		transactions: transactions,
		outbox:       &fakeOutboxStore{},
	}

	_, err := svc.ResolveCallback(context.Background(), "SSLTEST005", model.SSLTxnStatusSuccess)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveCallbackUnknownTransaction(t *testing.T) {
	svc := &GatewayService{
		cfg:          testConfig(true),
		log:          testLogger(),
		candidates:   &fakeCandidateStore{candidate: testCandidate(5)},
		payments:     &fakePaymentStore{},
		transactions: newFakeSSLTxnStore(),
		outbox:       &fakeOutboxStore{},
	}

	_, err := svc.ResolveCallback(context.Background(), "SSLNOPE", model.SSLTxnStatusSuccess)
	assert.ErrorIs(t, err, repository.ErrTransactionNotFound)
}

func TestResolveCallbackDuplicateLedgerRowIsSwallowed(t *testing.T) {
	// The unique index is the storage-level backstop: a duplicate insert means
	// the credit already happened, so the callback still resolves cleanly and
	// no second balance application runs.
	candidates := &fakeCandidateStore{candidate: testCandidate(5)}
	payments := &fakePaymentStore{createErr: repository.ErrDuplicatePayment}
	transactions := newFakeSSLTxnStore()
	pendingTxn(transactions, "SSLTEST003", 10, 30000)

	svc := newTestGatewayService(t, candidates, payments, transactions, &fakeOutboxStore{}, &fakeGatewayClient{}, 1)

	result, err := svc.ResolveCallback(context.Background(), "SSLTEST003", model.SSLTxnStatusSuccess)
	require.NoError(t, err)
	assert.False(t, result.Credited)
	assert.Empty(t, candidates.applied)
}

func TestResolveIPN(t *testing.T) {
	cases := []struct {
		gatewayStatus string
		want          string
	}{
		{"VALID", model.SSLTxnStatusSuccess},
		{"VALIDATED", model.SSLTxnStatusSuccess},
		{"FAILED", model.SSLTxnStatusFailed},
		{"CANCELLED", model.SSLTxnStatusCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.gatewayStatus, func(t *testing.T) {
			candidates := &fakeCandidateStore{candidate: testCandidate(5)}
			transactions := newFakeSSLTxnStore()
			pendingTxn(transactions, "SSLTEST004", 10, 30000)

			svc := newTestGatewayService(t, candidates, &fakePaymentStore{}, transactions, &fakeOutboxStore{}, &fakeGatewayClient{}, 1)

			result, err := svc.ResolveIPN(context.Background(), "SSLTEST004", tc.gatewayStatus)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Status)
			assert.Equal(t, tc.want, transactions.txns["SSLTEST004"].Status)
		})
	}

	t.Run("unrecognized status", func(t *testing.T) {
		svc := &GatewayService{
			cfg:          testConfig(true),
			log:          testLogger(),
			transactions: newFakeSSLTxnStore(),
		}
		_, err := svc.ResolveIPN(context.Background(), "SSLTEST004", "PROCESSING")
		assert.ErrorIs(t, err, ErrUnknownIPNStatus)
	})
}
