package service

import (
	"context"
	"errors"

	"recruitdesk/internal/gateway/sslcommerz"
	"recruitdesk/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service-level sentinel errors. Repositories own the not-found sentinels;
// these cover validation, authorization and policy outcomes.
var (
	ErrForbidden            = errors.New("operation not permitted")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPaymentType   = errors.New("unknown payment type")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrOverpayment          = errors.New("amount exceeds candidate due")
	ErrInvalidCredentials   = errors.New("invalid email or password")
)

// Store interfaces consumed by the ledger and gateway services. Production
// wiring uses the gorm repositories; tests substitute fakes. Methods that take
// a *gorm.DB run inside the caller's transaction.

type CandidateStore interface {
	GetByID(ctx context.Context, id int64) (*model.Candidate, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Candidate, error)
	ApplyPayment(ctx context.Context, tx *gorm.DB, id int64, amount decimal.Decimal) error
}

type PaymentStore interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)
	ListByCandidate(ctx context.Context, candidateID int64) ([]*model.Payment, error)
}

type SSLTransactionStore interface {
	Create(ctx context.Context, txn *model.SSLTransaction) error
	GetByTranID(ctx context.Context, tranID string) (*model.SSLTransaction, error)
	MarkTerminal(ctx context.Context, tx *gorm.DB, tranID, target string) (bool, error)
}

type OutboxStore interface {
	Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error
}

// GatewayClient is the outbound half of the SSLCommerz handshake.
type GatewayClient interface {
	InitiateSession(ctx context.Context, req sslcommerz.InitRequest) (string, error)
}
