package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"recruitdesk/internal/authz"
	"recruitdesk/internal/config"
	"recruitdesk/internal/infrastructure/lock"
	"recruitdesk/internal/model"
	"recruitdesk/internal/repository"
	"recruitdesk/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LedgerService owns the cash write path and receipt reads. Every balance
// mutation funnels through one transaction: ledger insert plus candidate
// recompute succeed or fail together.
type LedgerService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	log         *zap.Logger
	candidates  CandidateStore
	payments    PaymentStore
	outbox      OutboxStore
}

func NewLedgerService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *zap.Logger) *LedgerService {
	return &LedgerService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		log:         log,
		candidates:  repository.NewCandidateRepository(db),
		payments:    repository.NewPaymentRepository(db),
		outbox:      repository.NewOutboxRepository(db),
	}
}

type RecordPaymentRequest struct {
	CandidateID   int64
	Amount        decimal.Decimal
	PaymentType   string
	PaymentMethod string
	TransactionID string // optional manual reference for cash receipts
	Notes         string
}

// RecordCashPayment applies a manual payment as one atomic unit: candidate
// row lock, ledger insert, balance recompute. Authorization runs before any
// persistence; the overpayment policy is config driven.
func (s *LedgerService) RecordCashPayment(ctx context.Context, principal authz.Principal, req *RecordPaymentRequest) (*model.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !model.ValidPaymentType(req.PaymentType) {
		return nil, ErrInvalidPaymentType
	}
	// Gateway rows only enter the ledger through the callback state machine.
	if req.PaymentMethod != model.PaymentMethodCash {
		return nil, ErrInvalidPaymentMethod
	}

	candidate, err := s.candidates.GetByID(ctx, req.CandidateID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessCandidate(principal, authz.OpPaymentWrite, candidate.AgentID) {
		return nil, ErrForbidden
	}

	if !s.cfg.Business.AllowOverpayment && req.Amount.GreaterThan(candidate.DueAmount) {
		return nil, ErrOverpayment
	}

	if s.redisClient != nil {
		candidateLock := lock.NewCandidateLock(s.redisClient, req.CandidateID)
		if err := candidateLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
			return nil, fmt.Errorf("candidate is busy, retry: %w", err)
		}
		defer candidateLock.Unlock(ctx)
	}

	payment := &model.Payment{
		CandidateID:   req.CandidateID,
		Amount:        req.Amount,
		PaymentType:   req.PaymentType,
		PaymentMethod: model.PaymentMethodCash,
		Notes:         req.Notes,
		ReceivedBy:    principal.UserID,
	}
	// Every cash payment gets a reference so the receipt is addressable; the
	// operator may supply one, otherwise a RCP number is issued.
	tranID := req.TransactionID
	if tranID == "" {
		tranID = idgen.GenerateReceiptNo()
	}
	payment.TransactionID = &tranID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := s.candidates.GetByIDForUpdate(ctx, tx, req.CandidateID)
		if err != nil {
			return err
		}

		// Re-check under the row lock; another writer may have reduced the
		// due since the unlocked read.
		if !s.cfg.Business.AllowOverpayment && req.Amount.GreaterThan(locked.DueAmount) {
			return ErrOverpayment
		}

		if err := s.payments.Create(ctx, tx, payment); err != nil {
			return fmt.Errorf("ledger insert failed: %w", err)
		}

		if err := s.candidates.ApplyPayment(ctx, tx, req.CandidateID, req.Amount); err != nil {
			return fmt.Errorf("balance update failed: %w", err)
		}

		return s.enqueueEvent(ctx, tx, model.EventPaymentRecorded, payment)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("cash payment recorded",
		zap.Int64("candidate_id", req.CandidateID),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("payment_type", req.PaymentType),
		zap.Int64("received_by", principal.UserID),
	)

	return payment, nil
}

// Receipt is the joined payment + candidate identity view rendered by the
// printable receipt page.
type Receipt struct {
	Payment       *model.Payment `json:"payment"`
	CandidateID   int64          `json:"candidate_id"`
	CandidateName string         `json:"candidate_name"`
	PassportNo    string         `json:"passport_no"`
	Phone         string         `json:"phone"`
	AgentID       *int64         `json:"agent_id,omitempty"`
}

// GetReceipt looks a payment up by its external transaction id (gateway
// tran_id or manually recorded cash reference). Agents only reach receipts
// for their own candidates.
func (s *LedgerService) GetReceipt(ctx context.Context, principal authz.Principal, transactionID string) (*Receipt, error) {
	payment, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	candidate, err := s.candidates.GetByID(ctx, payment.CandidateID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessCandidate(principal, authz.OpPaymentRead, candidate.AgentID) {
		return nil, ErrForbidden
	}

	return &Receipt{
		Payment:       payment,
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
		PassportNo:    candidate.PassportNo,
		Phone:         candidate.Phone,
		AgentID:       candidate.AgentID,
	}, nil
}

// ListCandidatePayments returns the candidate's full ledger, newest first.
func (s *LedgerService) ListCandidatePayments(ctx context.Context, principal authz.Principal, candidateID int64) ([]*model.Payment, error) {
	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessCandidate(principal, authz.OpPaymentRead, candidate.AgentID) {
		return nil, ErrForbidden
	}

	return s.payments.ListByCandidate(ctx, candidateID)
}

func (s *LedgerService) enqueueEvent(ctx context.Context, tx *gorm.DB, event string, payment *model.Payment) error {
	payload, err := json.Marshal(map[string]interface{}{
		"event":          event,
		"payment_id":     payment.ID,
		"candidate_id":   payment.CandidateID,
		"amount":         payment.Amount.StringFixed(2),
		"payment_type":   payment.PaymentType,
		"payment_method": payment.PaymentMethod,
		"transaction_id": payment.TransactionID,
		"recorded_at":    time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	key := strconv.FormatInt(payment.CandidateID, 10)
	msg := &model.OutboxMessage{
		MessageKey: key,
		Topic:      s.cfg.Kafka.Topic.PaymentEvents,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	return s.outbox.Create(ctx, tx, msg)
}
