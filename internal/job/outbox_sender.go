package job

import (
	"context"
	"time"

	"recruitdesk/internal/config"
	"recruitdesk/internal/infrastructure/mq"
	"recruitdesk/internal/model"
	"recruitdesk/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OutboxSender drains the transactional outbox into Kafka. Messages are
// written in the same DB transaction as the ledger mutation, so a broker
// outage delays events but never loses them.
type OutboxSender struct {
	db         *gorm.DB
	outboxRepo *repository.OutboxRepository
	cfg        *config.Config
	log        *zap.Logger
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, cfg *config.Config, log *zap.Logger) *OutboxSender {
	return &OutboxSender{
		db:         db,
		outboxRepo: repository.NewOutboxRepository(db),
		cfg:        cfg,
		log:        log,
		stopCh:     make(chan struct{}),
		interval:   100 * time.Millisecond,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.log.Info("outbox sender started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("outbox sender stopping: context cancelled")
			return
		case <-s.stopCh:
			s.log.Info("outbox sender stopped")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		s.log.Error("outbox query failed", zap.Error(err))
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	err := mq.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)

	if err == nil {
		if updateErr := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			s.log.Error("outbox status update failed", zap.Int64("id", msg.ID), zap.Error(updateErr))
			return
		}
		s.log.Debug("outbox message sent",
			zap.Int64("id", msg.ID),
			zap.String("topic", msg.Topic),
			zap.String("key", msg.MessageKey),
		)
		return
	}

	s.log.Warn("outbox send failed", zap.Int64("id", msg.ID), zap.Error(err))

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		s.log.Error("outbox retry bump failed", zap.Int64("id", msg.ID), zap.Error(err))
	}

	if msg.RetryCount+1 >= s.cfg.Business.MaxOutboxRetryCount {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			s.log.Error("outbox mark-failed failed", zap.Int64("id", msg.ID), zap.Error(err))
		} else {
			s.log.Warn("outbox message exceeded max retries, marked failed", zap.Int64("id", msg.ID))
		}
	}
}
