package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recruitdesk/internal/authz"
	"recruitdesk/internal/config"
	"recruitdesk/internal/gateway/sslcommerz"
	"recruitdesk/internal/infrastructure/lock"
	"recruitdesk/internal/model"
	"recruitdesk/internal/repository"
	"recruitdesk/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUnknownIPNStatus = errors.New("unrecognized IPN status")

// GatewayService drives the SSLCommerz handshake: it creates the pending
// transaction record, obtains the hosted page URL, and resolves the three
// browser callbacks plus the IPN through one state-transition path.
type GatewayService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	log          *zap.Logger
	candidates   CandidateStore
	payments     PaymentStore
	transactions SSLTransactionStore
	outbox       OutboxStore
	gateway      GatewayClient
}

func NewGatewayService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *zap.Logger, gateway GatewayClient) *GatewayService {
	return &GatewayService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		log:          log,
		candidates:   repository.NewCandidateRepository(db),
		payments:     repository.NewPaymentRepository(db),
		transactions: repository.NewSSLTransactionRepository(db),
		outbox:       repository.NewOutboxRepository(db),
		gateway:      gateway,
	}
}

type InitiateRequest struct {
	CandidateID int64
	Amount      decimal.Decimal
	PaymentType string
	// CallbackBaseURL is this API as reachable by the gateway; the handler
	// fills it from config or, failing that, the inbound request host.
	CallbackBaseURL string
}

// InitiatePayment persists a pending SSLTransaction keyed by a fresh tran_id
// and then asks the gateway for a hosted-payment-page URL. The pending row is
// written first so a crash or gateway failure after this point still leaves a
// traceable record; on failure the row deliberately stays pending.
func (s *GatewayService) InitiatePayment(ctx context.Context, principal authz.Principal, req *InitiateRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	if !model.ValidPaymentType(req.PaymentType) {
		return "", ErrInvalidPaymentType
	}

	candidate, err := s.candidates.GetByID(ctx, req.CandidateID)
	if err != nil {
		return "", err
	}

	if !authz.CanAccessCandidate(principal, authz.OpGatewayInit, candidate.AgentID) {
		return "", ErrForbidden
	}

	if !s.cfg.Business.AllowOverpayment && req.Amount.GreaterThan(candidate.DueAmount) {
		return "", ErrOverpayment
	}

	tranID := idgen.GenerateTranID()

	txn := &model.SSLTransaction{
		CandidateID: req.CandidateID,
		Amount:      req.Amount,
		PaymentType: req.PaymentType,
		TranID:      tranID,
		Status:      model.SSLTxnStatusPending,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return "", fmt.Errorf("failed to create gateway transaction: %w", err)
	}

	pageURL, err := s.gateway.InitiateSession(ctx, s.buildInitRequest(candidate, req, tranID))
	if err != nil {
		s.log.Warn("gateway initiation failed",
			zap.String("tran_id", tranID),
			zap.Int64("candidate_id", req.CandidateID),
			zap.Error(err),
		)
		return "", err
	}

	s.log.Info("gateway session initiated",
		zap.String("tran_id", tranID),
		zap.Int64("candidate_id", req.CandidateID),
		zap.String("amount", req.Amount.StringFixed(2)),
	)

	return pageURL, nil
}

func (s *GatewayService) buildInitRequest(candidate *model.Candidate, req *InitiateRequest, tranID string) sslcommerz.InitRequest {
	base := req.CallbackBaseURL
	return sslcommerz.InitRequest{
		Amount:          req.Amount,
		Currency:        "BDT",
		TranID:          tranID,
		SuccessURL:      base + "/api/v1/sslcommerz/success",
		FailURL:         base + "/api/v1/sslcommerz/fail",
		CancelURL:       base + "/api/v1/sslcommerz/cancel",
		IPNURL:          base + "/api/v1/sslcommerz/ipn",
		ProductName:     req.PaymentType + " fee",
		ProductCategory: "recruitment",
		CustomerName:    fallback(candidate.Name, "Candidate"),
		CustomerEmail:   fallback(candidate.Email, "candidate@recruitdesk.local"),
		CustomerPhone:   fallback(candidate.Phone, "00000000000"),
		CustomerAddress: fallback(candidate.Address, "N/A"),
		CustomerCity:    fallback(candidate.City, "Dhaka"),
		CustomerCountry: fallback(candidate.Country, "Bangladesh"),
	}
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// CallbackResult tells the handler where to send the browser and whether this
// particular invocation performed the credit.
type CallbackResult struct {
	TranID      string
	CandidateID int64
	Status      string
	Credited    bool
}

// ResolveCallback is the single state-transition path shared by the success,
// fail and cancel callbacks and by the IPN. The pending -> terminal move is a
// conditional update; only the invocation that wins it runs the financial
// side effect, so a retried webhook or a browser redirect racing the IPN can
// never double-credit. The ledger's unique transaction_id index backs this up
// at the storage layer.
func (s *GatewayService) ResolveCallback(ctx context.Context, tranID, target string) (*CallbackResult, error) {
	txn, err := s.transactions.GetByTranID(ctx, tranID)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		callbackLock := lock.NewCallbackLock(s.redisClient, tranID)
		acquired, lockErr := callbackLock.TryLock(ctx)
		if lockErr != nil {
			s.log.Warn("callback lock unavailable", zap.String("tran_id", tranID), zap.Error(lockErr))
		} else if acquired {
			defer callbackLock.Unlock(ctx)
		}
		// Not acquired: a duplicate is in flight. Proceed anyway; the
		// conditional update decides who wins.
	}

	result := &CallbackResult{
		TranID:      tranID,
		CandidateID: txn.CandidateID,
		Status:      target,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		won, err := s.transactions.MarkTerminal(ctx, tx, tranID, target)
		if err != nil {
			return err
		}
		if !won {
			s.log.Info("callback for already-terminal transaction skipped",
				zap.String("tran_id", tranID),
				zap.String("target", target),
			)
			return nil
		}

		// Any won transition is reportable, not just the credited ones.
		if err := s.enqueueResolvedEvent(ctx, tx, txn, target); err != nil {
			return err
		}

		if target != model.SSLTxnStatusSuccess {
			return nil
		}

		if _, err := s.candidates.GetByIDForUpdate(ctx, tx, txn.CandidateID); err != nil {
			return err
		}

		payment := &model.Payment{
			CandidateID:   txn.CandidateID,
			Amount:        txn.Amount,
			PaymentType:   txn.PaymentType,
			PaymentMethod: model.PaymentMethodSSLCommerz,
			TransactionID: &txn.TranID,
			ReceivedBy:    0, // gateway originated, no operator
		}
		if err := s.payments.Create(ctx, tx, payment); err != nil {
			if errors.Is(err, repository.ErrDuplicatePayment) {
				// Already credited through another path; nothing to apply.
				return nil
			}
			return fmt.Errorf("ledger insert failed: %w", err)
		}

		if err := s.candidates.ApplyPayment(ctx, tx, txn.CandidateID, txn.Amount); err != nil {
			return fmt.Errorf("balance update failed: %w", err)
		}

		result.Credited = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("gateway transaction resolved",
		zap.String("tran_id", tranID),
		zap.String("status", target),
		zap.Bool("credited", result.Credited),
	)

	return result, nil
}

// ResolveIPN maps the gateway's server-to-server status onto the same
// transition path as the browser callbacks, so a lost redirect cannot leave a
// paid transaction stuck pending.
func (s *GatewayService) ResolveIPN(ctx context.Context, tranID, gatewayStatus string) (*CallbackResult, error) {
	var target string
	switch gatewayStatus {
	case "VALID", "VALIDATED":
		target = model.SSLTxnStatusSuccess
	case "FAILED":
		target = model.SSLTxnStatusFailed
	case "CANCELLED":
		target = model.SSLTxnStatusCancelled
	default:
		return nil, ErrUnknownIPNStatus
	}
	return s.ResolveCallback(ctx, tranID, target)
}

func (s *GatewayService) enqueueResolvedEvent(ctx context.Context, tx *gorm.DB, txn *model.SSLTransaction, status string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"event":        model.EventGatewayResolved,
		"tran_id":      txn.TranID,
		"candidate_id": txn.CandidateID,
		"amount":       txn.Amount.StringFixed(2),
		"status":       status,
		"resolved_at":  time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	msg := &model.OutboxMessage{
		MessageKey: txn.TranID,
		Topic:      s.cfg.Kafka.Topic.PaymentEvents,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	return s.outbox.Create(ctx, tx, msg)
}
