package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	TopicFetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "topic_fetch_errors_total",
		Help: "Ошибки при выгрузке заголовков из источников",
	}, []string{"source"})

	TopicCandidates = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "topic_candidates",
		Help: "Количество кандидатов после фильтрации по источнику",
	}, []string{"source"})

	PostBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "post_build_seconds",
		Help:    "Время генерации поста",
		Buckets: prometheus.DefBuckets,
	})

	PublishResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_results_total",
		Help: "Итоги публикаций по статусу",
	}, []string{"status"})

	ClipboardFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clipboard_fallbacks_total",
		Help: "Срабатывания запасных стратегий переноса картинки",
	})

	SelectorResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "selector_resolutions_total",
		Help: "Разрешение целей страницы по статусу",
	}, []string{"target", "status"})

	ScheduleFires = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_fires_total",
		Help: "Срабатывания триггеров расписания",
	}, []string{"frequency", "outcome"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Длительность генерации ответа LLM",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Количество токенов, использованных LLM",
	}, []string{"model", "type"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		TopicFetchErrors,
		TopicCandidates,
		PostBuildSeconds,
		PublishResults,
		ClipboardFallbacks,
		SelectorResolutions,
		ScheduleFires,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration записывает длительность и токены генерации LLM.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// ObserveSelectorResolution фиксирует исход разрешения цели страницы.
func ObserveSelectorResolution(target string, found bool) {
	status := "found"
	if !found {
		status = "not_found"
	}
	SelectorResolutions.WithLabelValues(target, status).Inc()
}

// ObservePublish фиксирует итог публикации.
func ObservePublish(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	PublishResults.WithLabelValues(status).Inc()
}
