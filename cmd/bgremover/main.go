package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bgremover/internal/bot"
	"bgremover/internal/config"
	"bgremover/internal/remover"
	"bgremover/internal/repository"
	"bgremover/internal/service"
	"bgremover/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zapLog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zapLog.Sync()

	db, err := repository.NewDB(cfg.DatabasePath)
	if err != nil {
		zapLog.Fatal("open db", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db, zapLog)

	var rm remover.Remover
	switch cfg.RemoverStrategy {
	case config.StrategyLocal:
		rm = remover.NewLocalRemover()
	default:
		rm = remover.NewRemoteRemover(cfg.RemoveBGURL, cfg.RemoveBGAPIKey, cfg.RemoveTimeout)
	}

	photoSvc := service.NewPhotoService(userRepo, rm, cfg.WorkerPoolSize)
	statsSvc := service.NewStatsService(userRepo)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, photoSvc, statsSvc, &cfg, zapLog)
	if err != nil {
		zapLog.Fatal("create bot", zap.Error(err))
	}

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendUsageReport(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLog.Error("usage report", zap.Error(err))
			}
		}); err != nil {
			zapLog.Fatal("schedule usage report", zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	zapLog.Info("background remover bot started",
		zap.String("strategy", cfg.RemoverStrategy),
		zap.Int("workers", cfg.WorkerPoolSize))
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zapLog.Fatal("bot stopped with error", zap.Error(err))
	}
	zapLog.Info("shutdown complete")
}
