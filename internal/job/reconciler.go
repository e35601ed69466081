package job

import (
	"context"
	"time"

	"recruitdesk/internal/config"
	"recruitdesk/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reconciler sweeps the ledger looking for two kinds of trouble: candidate
// balance columns that drifted from SUM(payments), and gateway transactions
// stuck pending long after initiation (payer abandoned the page, or every
// callback and IPN was lost).
type Reconciler struct {
	db            *gorm.DB
	candidateRepo *repository.CandidateRepository
	paymentRepo   *repository.PaymentRepository
	sslRepo       *repository.SSLTransactionRepository
	cfg           *config.Config
	log           *zap.Logger
	stopCh        chan struct{}
	batchSize     int
}

func NewReconciler(db *gorm.DB, cfg *config.Config, log *zap.Logger) *Reconciler {
	return &Reconciler{
		db:            db,
		candidateRepo: repository.NewCandidateRepository(db),
		paymentRepo:   repository.NewPaymentRepository(db),
		sslRepo:       repository.NewSSLTransactionRepository(db),
		cfg:           cfg,
		log:           log,
		stopCh:        make(chan struct{}),
		batchSize:     200,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	r.log.Info("reconciler started",
		zap.Int("interval_mins", r.cfg.Business.ReconcileIntervalMins),
		zap.Bool("repair", r.cfg.Business.RepairBalanceDrift),
	)

	interval := time.Duration(r.cfg.Business.ReconcileIntervalMins) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopping: context cancelled")
			return
		case <-r.stopCh:
			r.log.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.sweepBalances(ctx)
			r.alertStalePending(ctx)
		}
	}
}

func (r *Reconciler) Stop() {
	close(r.stopCh)
}

// sweepBalances walks all candidates in keyset batches and compares the
// denormalized total_paid against the ledger sum. Drift should never happen;
// when it does it is logged loudly and, if configured, repaired from the
// ledger, which stays the source of truth.
func (r *Reconciler) sweepBalances(ctx context.Context) {
	var afterID int64
	checked, drifted := 0, 0

	for {
		ids, err := r.candidateRepo.ListIDs(ctx, afterID, r.batchSize)
		if err != nil {
			r.log.Error("reconcile: candidate batch failed", zap.Error(err))
			return
		}
		if len(ids) == 0 {
			break
		}
		afterID = ids[len(ids)-1]

		for _, id := range ids {
			checked++
			if r.checkCandidate(ctx, id) {
				drifted++
			}
		}
	}

	r.log.Info("balance sweep finished", zap.Int("checked", checked), zap.Int("drifted", drifted))
}

func (r *Reconciler) checkCandidate(ctx context.Context, id int64) bool {
	candidate, err := r.candidateRepo.GetByID(ctx, id)
	if err != nil {
		r.log.Error("reconcile: candidate load failed", zap.Int64("candidate_id", id), zap.Error(err))
		return false
	}

	ledgerSum, err := r.paymentRepo.SumByCandidate(ctx, nil, id)
	if err != nil {
		r.log.Error("reconcile: ledger sum failed", zap.Int64("candidate_id", id), zap.Error(err))
		return false
	}

	if candidate.TotalPaid.Equal(ledgerSum) {
		return false
	}

	r.log.Error("balance drift detected",
		zap.Int64("candidate_id", id),
		zap.String("total_paid", candidate.TotalPaid.StringFixed(2)),
		zap.String("ledger_sum", ledgerSum.StringFixed(2)),
	)

	if r.cfg.Business.RepairBalanceDrift {
		r.repairCandidate(ctx, id)
	}

	return true
}

// repairCandidate re-derives the totals under the candidate row lock. Ledger
// writers hold the same lock, so a payment landing mid-repair waits and the
// sum written back can never be stale.
func (r *Reconciler) repairCandidate(ctx context.Context, id int64) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := r.candidateRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		ledgerSum, err := r.paymentRepo.SumByCandidate(ctx, tx, id)
		if err != nil {
			return err
		}
		return r.candidateRepo.SetBalances(ctx, tx, id, ledgerSum)
	})
	if err != nil {
		r.log.Error("balance repair failed", zap.Int64("candidate_id", id), zap.Error(err))
		return
	}
	r.log.Warn("balance repaired from ledger", zap.Int64("candidate_id", id))
}

func (r *Reconciler) alertStalePending(ctx context.Context) {
	threshold := time.Duration(r.cfg.Business.PendingAlertAfterMins) * time.Minute
	if threshold <= 0 {
		threshold = 60 * time.Minute
	}

	count, err := r.sslRepo.CountStalePending(ctx, time.Now().Add(-threshold))
	if err != nil {
		r.log.Error("reconcile: stale pending count failed", zap.Error(err))
		return
	}
	if count > 0 {
		r.log.Warn("gateway transactions stuck pending",
			zap.Int64("count", count),
			zap.Duration("older_than", threshold),
		)
	}
}
