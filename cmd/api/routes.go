package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
)

// postingAPI — срез оркестратора, нужный HTTP-слою.
type postingAPI interface {
	Generate(ctx context.Context) (domain.GeneratedPost, error)
	Draft(ctx context.Context) (domain.GeneratedPost, error)
	Approve(ctx context.Context) (domain.AutomationResult, error)
	Copy(ctx context.Context) (domain.GeneratedPost, error)
	Discard(ctx context.Context) error
	AgentReady(ctx context.Context) bool
	History(ctx context.Context) ([]domain.UsedTopicRecord, error)
	ClearHistory(ctx context.Context) error
}

type settingsAPI interface {
	Get(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, cfg domain.Settings) error
}

// registerRoutes вешает API на роутер. Доменные отказы транслируются в
// говорящие статусы: нет тем — 409, нет ключа провайдера — 412, нет
// черновика — 404; всё остальное — 500/502 с нейтральным текстом.
func registerRoutes(r chi.Router, posts postingAPI, settingsSvc settingsAPI, logger zerolog.Logger) {
	r.Get("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"agent_ready": posts.AgentReady(r.Context())})
	})

	r.Post("/api/v1/posts/generate", func(w http.ResponseWriter, r *http.Request) {
		post, err := posts.Generate(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNoTopics) {
				writeError(w, http.StatusConflict, err.Error())
				return
			}
			if errors.Is(err, domain.ErrNotConfigured) {
				writeError(w, http.StatusPreconditionFailed, domain.ErrNotConfigured.Error())
				return
			}
			logger.Error().Err(err).Msg("api: генерация поста")
			writeError(w, http.StatusInternalServerError, "не удалось сгенерировать пост")
			return
		}
		writeJSON(w, post)
	})

	r.Get("/api/v1/posts/draft", func(w http.ResponseWriter, r *http.Request) {
		post, err := posts.Draft(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNoDraft) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "не удалось прочитать черновик")
			return
		}
		writeJSON(w, post)
	})

	r.Post("/api/v1/posts/approve", func(w http.ResponseWriter, r *http.Request) {
		res, err := posts.Approve(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNoDraft) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			logger.Error().Err(err).Msg("api: публикация")
			writeError(w, http.StatusBadGateway, "агент автоматизации недоступен")
			return
		}
		writeJSON(w, res)
	})

	r.Post("/api/v1/posts/copy", func(w http.ResponseWriter, r *http.Request) {
		post, err := posts.Copy(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNoDraft) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "не удалось выдать черновик")
			return
		}
		writeJSON(w, map[string]string{"content": post.Content})
	})

	r.Delete("/api/v1/posts/draft", func(w http.ResponseWriter, r *http.Request) {
		if err := posts.Discard(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "не удалось удалить черновик")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/api/v1/topics/history", func(w http.ResponseWriter, r *http.Request) {
		records, err := posts.History(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "не удалось прочитать историю")
			return
		}
		writeJSON(w, map[string]any{"topics": records})
	})

	r.Delete("/api/v1/topics/history", func(w http.ResponseWriter, r *http.Request) {
		if err := posts.ClearHistory(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "не удалось очистить историю")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/api/v1/settings", func(w http.ResponseWriter, r *http.Request) {
		cfg, err := settingsSvc.Get(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "не удалось прочитать настройки")
			return
		}
		writeJSON(w, cfg)
	})

	r.Put("/api/v1/settings", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req domain.Settings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !req.Frequency.Valid() {
			writeError(w, http.StatusBadRequest, "неизвестная частота напоминаний")
			return
		}
		if err := settingsSvc.Save(r.Context(), req); err != nil {
			writeError(w, http.StatusInternalServerError, "не удалось сохранить настройки")
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
