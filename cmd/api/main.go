package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"li-post-bot/internal/adapters/feeds"
	"li-post-bot/internal/adapters/generator"
	"li-post-bot/internal/adapters/images"
	"li-post-bot/internal/adapters/kv"
	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/bus"
	"li-post-bot/internal/infra/config"
	"li-post-bot/internal/infra/db"
	"li-post-bot/internal/infra/gemini"
	"li-post-bot/internal/infra/groq"
	httpinfra "li-post-bot/internal/infra/http"
	"li-post-bot/internal/infra/httpx"
	logpkg "li-post-bot/internal/infra/log"
	"li-post-bot/internal/infra/metrics"
	"li-post-bot/internal/usecase/compose"
	"li-post-bot/internal/usecase/ledger"
	"li-post-bot/internal/usecase/posting"
	"li-post-bot/internal/usecase/settings"
	"li-post-bot/internal/usecase/topics"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	durable := kv.NewPostgres(pool)
	if err := durable.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("api: схема хранилища не создана")
	}
	session := kv.NewRedis(redisClient, "liposter")

	httpClient := httpx.New(10*time.Second, cfg.Limits.FetchRetries, time.Second)
	sources := []domain.TopicSource{
		feeds.NewHackerNews(httpClient, "", cfg.Limits.HNStories),
		feeds.NewReddit(httpClient, "", cfg.Limits.RedditPerSub),
		feeds.NewGitHubTrending(),
		feeds.NewDevTo(),
	}
	aggregator := topics.NewAggregator(sources, logger.With().Str("component", "topics").Logger())

	template := generator.NewTemplate()
	generators := map[string]domain.Generator{
		domain.ProviderGroq: generator.NewGroq(
			groq.NewClient(cfg.Providers.Groq, "", 30*time.Second), "", 30*time.Second),
		domain.ProviderGemini: generator.NewGemini(
			gemini.NewClient(cfg.Providers.Gemini, "", 30*time.Second),
			template, 30*time.Second, logger.With().Str("component", "gemini").Logger()),
		domain.ProviderTemplate: template,
	}
	imageProvider := images.NewUnsplash(httpClient, "", cfg.Providers.Unsplash,
		logger.With().Str("component", "images").Logger())

	composer := compose.NewService(generators, template, imageProvider,
		logger.With().Str("component", "compose").Logger())
	ledgerSvc := ledger.NewService(durable, cfg.Limits.HistoryDays)
	settingsSvc := settings.NewService(durable)

	publishBus, err := bus.Connect(cfg.AMQPURL, cfg.Queues.Publish,
		time.Duration(cfg.Limits.PublishWaitS)*time.Second,
		logger.With().Str("component", "bus").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к шине")
	}
	defer publishBus.Close()

	postingSvc := posting.NewService(aggregator, composer, settingsSvc, ledgerSvc, session,
		publishBus, time.Duration(cfg.Limits.DraftTTLHours)*time.Hour,
		logger.With().Str("component", "posting").Logger())

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	registerRoutes(srv.Router, postingSvc, settingsSvc, logger)

	go func() {
		logger.Info().Msg("api: старт")
		if err := srv.Start(":8080"); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
