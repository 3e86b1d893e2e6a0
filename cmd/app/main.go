package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sui_reward_bot/internal/bot"
	"sui_reward_bot/internal/cache"
	"sui_reward_bot/internal/config"
	"sui_reward_bot/internal/db"
	"sui_reward_bot/internal/logger"
	"sui_reward_bot/internal/metrics"
	"sui_reward_bot/internal/repository"
	"sui_reward_bot/internal/service"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	jsonLogs := os.Getenv("LOG_FORMAT") == "json"
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init(logLevel, jsonLogs)
	log := logger.Get()

	cfg := config.Load()
	if cfg.BotToken == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN не задан")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbPool, err := db.Connect(ctx, db.Config{
		URL:           cfg.DatabaseURL,
		MaxConns:      cfg.DBMaxConns,
		RetryAttempts: cfg.RetryAttempts,
		RetryBase:     cfg.RetryBase,
	})
	if err != nil {
		cancel()
		logger.Fatal("не подключились к базе", "error", err)
	}
	defer dbPool.Close()

	if err := dbPool.InitSchema(ctx); err != nil {
		cancel()
		logger.Fatal("не инициализировали схему", "error", err)
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass)
	if err != nil {
		cancel()
		logger.Fatal("не подключились к redis", "error", err)
	}
	defer rdb.Close()
	cancel()

	accountRepo := repository.NewAccountRepository(dbPool)
	accountCache := cache.NewAccountCache(cfg.CacheSize, cfg.CacheTTL)

	accountService := service.NewAccountService(accountRepo, accountCache, cfg.Rewards)
	adminService := service.NewAdminService(accountRepo, accountCache)

	tgBot, err := bot.New(cfg.BotToken, accountService, adminService, cfg.AdminIDs)
	if err != nil {
		logger.Fatal("не запустили бота", "error", err)
	}
	go tgBot.Start()
	log.Info("bot started", "admins", len(cfg.AdminIDs))

	// фоновый планировщик уведомлений о готовых наградах
	dedup := cache.NewRedisDeduper(rdb, cfg.RenotifyInterval)
	scheduler := service.NewNotificationScheduler(
		accountRepo,
		dedup,
		tgBot,
		cfg.Rewards,
		cfg.NotifyInterval,
		cfg.NotifyBatchSize,
	)
	go scheduler.Start()

	// служебный HTTP: /metrics и /healthz
	srv := metrics.NewServer(cfg.AppPort, Version)
	go func() {
		log.Info("metrics server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	// планировщик дошлет текущее уведомление и выйдет
	scheduler.Stop()
	tgBot.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("bye")
}
