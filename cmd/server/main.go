package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recruitdesk/internal/config"
	"recruitdesk/internal/gateway/sslcommerz"
	"recruitdesk/internal/handler"
	"recruitdesk/internal/infrastructure/cache"
	"recruitdesk/internal/infrastructure/database"
	"recruitdesk/internal/infrastructure/mq"
	"recruitdesk/internal/job"
	"recruitdesk/internal/logger"
	"recruitdesk/pkg/idgen"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig("config/config.yaml")

	log := logger.New(cfg.Server.Mode)
	defer log.Sync()

	idgen.Init(1)

	db := database.InitMySQL(&cfg.MySQL)
	redisClient := cache.InitRedis(&cfg.Redis)

	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()

	gatewayClient, err := sslcommerz.NewClient(sslcommerz.Config{
		StoreID:       cfg.SSLCommerz.StoreID,
		StorePassword: cfg.SSLCommerz.StorePassword,
		Sandbox:       cfg.SSLCommerz.Sandbox,
		Timeout:       time.Duration(cfg.SSLCommerz.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Fatal("sslcommerz client init failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxSender := job.NewOutboxSender(db, cfg, log)
	go outboxSender.Start(ctx)

	reconciler := job.NewReconciler(db, cfg, log)
	go reconciler.Start(ctx)

	router := handler.SetupRouter(db, redisClient, cfg, log, gatewayClient)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}
