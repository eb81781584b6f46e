package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-ai-credits/internal/config"
	"resume-ai-credits/internal/domain/ports/adapter"
	"resume-ai-credits/internal/domain/ports/repository"
	"resume-ai-credits/internal/infra/db/postgres"
	"resume-ai-credits/internal/infra/logging"
	"resume-ai-credits/internal/infra/metrics"
	"resume-ai-credits/internal/infra/notify"
	"resume-ai-credits/internal/infra/redis"
	"resume-ai-credits/internal/infra/web"
	"resume-ai-credits/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	dev := flag.Bool("dev", false, "dev mode: console logging, relaxed defaults")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	accountRepo := postgres.NewAccountRepo(pool)
	ledgerRepo := postgres.NewLedgerRepo(pool)
	packageRepo := postgres.NewCoinPackageRepo(pool)
	paymentRepo := postgres.NewPaymentRepo(pool)
	webhookEventRepo := postgres.NewWebhookEventRepo(pool)
	stateRepo := postgres.NewUserStateRepo(pool)
	featureAccessRepo := postgres.NewFeatureAccessRepo(pool)
	featureCatalogRepo := postgres.NewFeatureCatalogRepo(pool)
	txManager := postgres.NewTxManager(pool)

	// Package reads are hot and change rarely; a Redis cache in front is
	// optional and the app runs without it.
	var packages repository.CoinPackageRepository = packageRepo
	if cfg.Redis.URL != "" {
		cache, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer cache.Close()
		packages = postgres.NewPackageRepoCacheDecorator(packageRepo, cache, cfg.Redis.TTL)
	}

	var notifier adapter.Notifier = notify.NewNoopNotifier()
	if cfg.Notify.TelegramToken != "" && cfg.Notify.AdminChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.AdminChatID, log)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram notifier init failed")
		}
		notifier = tg
	}

	recorderUC := usecase.NewStateRecorderUseCase(stateRepo, txManager, notifier, log)
	ledgerUC := usecase.NewLedgerUseCase(accountRepo, ledgerRepo, recorderUC, txManager, log)
	freePlanUC := usecase.NewFreePlanUseCase(accountRepo, packages, ledgerUC, recorderUC, txManager, log)
	webhookUC := usecase.NewWebhookUseCase(accountRepo, paymentRepo, webhookEventRepo, ledgerUC, recorderUC, txManager, log)
	featureUC := usecase.NewFeatureUseCase(featureAccessRepo, featureCatalogRepo, accountRepo, ledgerUC, recorderUC, txManager, log)

	auth := web.NewAuthManager(cfg.Server.JWTSecret)
	server := web.NewServer(ledgerUC, freePlanUC, webhookUC, featureUC, recorderUC, auth, cfg.Server.WebhookSecret, log)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("bye")
}
