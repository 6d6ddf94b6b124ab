package topics

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
)

type stubSource struct {
	name   string
	titles []string
	err    error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context) ([]string, error) {
	return s.titles, s.err
}

func TestIsTechRelated(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Kubernetes Security Hardening Guide", true},
		{"New LLM agent framework released", true},
		{"My cat learned a new trick", false},
		{"Best pasta recipes of the year", false},
	}
	for _, tc := range cases {
		if got := IsTechRelated(tc.title); got != tc.want {
			t.Fatalf("заголовок %q: ожидали %v, получили %v", tc.title, tc.want, got)
		}
	}
}

func TestExtractTopicDropsNoiseWords(t *testing.T) {
	got := ExtractTopic("Kubernetes Security Hardening Guide for 2025 Teams")
	want := "Kubernetes Security Hardening Guide"
	if got != want {
		t.Fatalf("ожидали %q, получили %q", want, got)
	}
}

func TestExtractTopicKeepsThreeWordsFromLongTitles(t *testing.T) {
	got := ExtractTopic("Distributed Serverless Platform Engineering Adoption Patterns Observability Monitoring")
	want := "Distributed Serverless Platform"
	if got != want {
		t.Fatalf("ожидали %q, получили %q", want, got)
	}
}

func TestCollectSurvivesFailedSource(t *testing.T) {
	agg := NewAggregator([]domain.TopicSource{
		&stubSource{name: "broken", err: errors.New("источник лежит")},
		&stubSource{name: "working", titles: []string{"Kubernetes Operators Deep Dive"}},
	}, zerolog.Nop())

	pool := agg.Collect(context.Background(), []string{"broken", "working"})
	if len(pool) != 1 {
		t.Fatalf("ожидали одного кандидата, получили %d", len(pool))
	}
	if pool[0].Text != "Kubernetes Operators Deep Dive" {
		t.Fatalf("неожиданный кандидат: %q", pool[0].Text)
	}
}

func TestCollectSkipsDisabledSources(t *testing.T) {
	agg := NewAggregator([]domain.TopicSource{
		&stubSource{name: "enabled", titles: []string{"Rust Async Runtime Internals"}},
		&stubSource{name: "disabled", titles: []string{"Docker Compose Secrets Handling"}},
	}, zerolog.Nop())

	pool := agg.Collect(context.Background(), []string{"enabled"})
	if len(pool) != 1 || pool[0].Text != "Rust Async Runtime Internals" {
		t.Fatalf("ожидали только кандидата включённого источника, получили %+v", pool)
	}
}

func TestCollectDeduplicatesCandidates(t *testing.T) {
	agg := NewAggregator([]domain.TopicSource{
		&stubSource{name: "a", titles: []string{"Kubernetes Security Hardening Guide"}},
		&stubSource{name: "b", titles: []string{"Kubernetes Security Hardening Guide"}},
	}, zerolog.Nop())

	pool := agg.Collect(context.Background(), []string{"a", "b"})
	if len(pool) != 1 {
		t.Fatalf("ожидали дедупликацию, получили %d кандидатов", len(pool))
	}
}

func TestCollectFallsBackToCuratedList(t *testing.T) {
	agg := NewAggregator([]domain.TopicSource{
		&stubSource{name: "empty", titles: []string{"Вечерние новости без технологий"}},
	}, zerolog.Nop())

	pool := agg.Collect(context.Background(), []string{"empty"})
	if len(pool) != len(fallbackTopics) {
		t.Fatalf("ожидали кураторский список из %d тем, получили %d", len(fallbackTopics), len(pool))
	}
}
