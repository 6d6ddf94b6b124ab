package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"li-post-bot/internal/adapters/browser"
	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/bus"
	"li-post-bot/internal/infra/config"
	"li-post-bot/internal/infra/httpx"
	logpkg "li-post-bot/internal/infra/log"
	"li-post-bot/internal/infra/metrics"
	"li-post-bot/internal/usecase/autopost"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	controller, closeBrowser, err := browser.New(ctx, browser.Config{
		ExecPath: cfg.Browser.ExecPath,
		FeedURL:  cfg.Browser.FeedURL,
		Headless: cfg.Browser.Headless,
	}, logger.With().Str("component", "browser").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("agent: браузер не запустился")
	}
	defer closeBrowser()

	fetcher := autopost.NewImageFetcher(httpx.New(cfg.Browser.Timeout, cfg.Limits.FetchRetries, time.Second))
	engine := autopost.NewEngine(controller, domain.LinkedInSelectors(), fetcher,
		logger.With().Str("component", "autopost").Logger())

	publishBus, err := bus.Connect(cfg.AMQPURL, cfg.Queues.Publish,
		time.Duration(cfg.Limits.PublishWaitS)*time.Second,
		logger.With().Str("component", "bus").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("agent: нет подключения к шине")
	}
	defer publishBus.Close()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	logger.Info().Str("feed", cfg.Browser.FeedURL).Msg("agent: старт")
	if err := publishBus.Consume(ctx, engine); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("agent: потребитель остановлен")
	}
	logger.Info().Msg("agent: остановка")
}
