package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"li-post-bot/internal/adapters/kv"
	"li-post-bot/internal/adapters/notify"
	"li-post-bot/internal/infra/cache"
	"li-post-bot/internal/infra/config"
	"li-post-bot/internal/infra/db"
	logpkg "li-post-bot/internal/infra/log"
	"li-post-bot/internal/infra/metrics"
	"li-post-bot/internal/usecase/schedule"
	"li-post-bot/internal/usecase/settings"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: телеграм недоступен")
	}

	durable := kv.NewPostgres(pool)
	if err := durable.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("scheduler: схема хранилища не создана")
	}
	settingsSvc := settings.NewService(durable)
	notifier := notify.NewTelegram(api, cfg.Telegram.ChatID)

	planner := schedule.NewPlanner(
		durable,
		cache.NewRedis(redisClient),
		settingsSvc,
		notifier,
		cfg.Schedule.Hour,
		cfg.Schedule.Minute,
		time.Weekday(cfg.Schedule.Weekday),
		logger.With().Str("component", "planner").Logger(),
	)

	if err := planner.Resume(ctx); err != nil {
		logger.Error().Err(err).Msg("scheduler: расписание не восстановлено")
	}

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	logger.Info().Msg("scheduler: старт")
	if err := planner.Run(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("scheduler: остановлен с ошибкой")
	}
	logger.Info().Msg("scheduler: остановка")
}
