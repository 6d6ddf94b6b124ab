package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
)

type stubPosting struct {
	post domain.GeneratedPost
	err  error
}

func (s *stubPosting) Generate(context.Context) (domain.GeneratedPost, error) {
	return s.post, s.err
}

func (s *stubPosting) Draft(context.Context) (domain.GeneratedPost, error) {
	return s.post, s.err
}

func (s *stubPosting) Approve(context.Context) (domain.AutomationResult, error) {
	return domain.AutomationResult{}, s.err
}

func (s *stubPosting) Copy(context.Context) (domain.GeneratedPost, error) {
	return s.post, s.err
}

func (s *stubPosting) Discard(context.Context) error { return s.err }

func (s *stubPosting) AgentReady(context.Context) bool { return true }

func (s *stubPosting) History(context.Context) ([]domain.UsedTopicRecord, error) {
	return nil, s.err
}

func (s *stubPosting) ClearHistory(context.Context) error { return s.err }

type stubSettingsAPI struct{}

func (stubSettingsAPI) Get(context.Context) (domain.Settings, error) {
	return domain.Settings{Frequency: domain.FrequencyManual}, nil
}

func (stubSettingsAPI) Save(context.Context, domain.Settings) error { return nil }

func newTestRouter(posts *stubPosting) chi.Router {
	r := chi.NewRouter()
	registerRoutes(r, posts, stubSettingsAPI{}, zerolog.Nop())
	return r
}

func doRequest(r chi.Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestGenerateHandlerSuccess(t *testing.T) {
	posts := &stubPosting{post: domain.GeneratedPost{Content: "пост", Topic: "Go"}}
	rec := doRequest(newTestRouter(posts), http.MethodPost, "/api/v1/posts/generate")

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var got domain.GeneratedPost
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("неожиданная ошибка разбора ответа: %v", err)
	}
	if got.Topic != "Go" {
		t.Fatalf("ожидали тему Go, получили %q", got.Topic)
	}
}

func TestGenerateHandlerNoTopics(t *testing.T) {
	posts := &stubPosting{err: domain.ErrNoTopics}
	rec := doRequest(newTestRouter(posts), http.MethodPost, "/api/v1/posts/generate")

	if rec.Code != http.StatusConflict {
		t.Fatalf("ожидали 409, получили %d", rec.Code)
	}
}

func TestGenerateHandlerProviderNotConfigured(t *testing.T) {
	// Ошибка приходит обёрнутой цепочкой usecase-слоёв, как в проде.
	posts := &stubPosting{err: fmt.Errorf("генерация текста (groq): groq completion: groq: %w", domain.ErrNotConfigured)}
	rec := doRequest(newTestRouter(posts), http.MethodPost, "/api/v1/posts/generate")

	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("ожидали 412 для ненастроенного провайдера, получили %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("неожиданная ошибка разбора ответа: %v", err)
	}
	if !strings.Contains(body["error"], "ключ API") {
		t.Fatalf("ожидали сообщение про ключ API, получили %q", body["error"])
	}
}

func TestGenerateHandlerInternalError(t *testing.T) {
	posts := &stubPosting{err: fmt.Errorf("ошибка хранилища")}
	rec := doRequest(newTestRouter(posts), http.MethodPost, "/api/v1/posts/generate")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("ожидали 500, получили %d", rec.Code)
	}
}
