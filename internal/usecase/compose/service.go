package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/metrics"
)

// Service превращает выбранную тему в готовый пост.
// Провайдер текста выбирается настройками, без автоматического перехода
// между сетевыми провайдерами; локальные шаблоны — последний рубеж.
type Service struct {
	generators map[string]domain.Generator
	template   domain.Generator
	images     domain.ImageProvider
	log        zerolog.Logger
}

// NewService создаёт синтезатор контента.
func NewService(generators map[string]domain.Generator, template domain.Generator, images domain.ImageProvider, logger zerolog.Logger) *Service {
	return &Service{generators: generators, template: template, images: images, log: logger}
}

// Synthesize строит пост по теме. Ошибки картинки никогда не всплывают:
// пост без иллюстрации лучше, чем отсутствие поста.
func (s *Service) Synthesize(ctx context.Context, topic, provider string, wantsImage bool) (domain.GeneratedPost, error) {
	start := time.Now()
	defer func() {
		metrics.PostBuildSeconds.Observe(time.Since(start).Seconds())
	}()

	gen, ok := s.generators[provider]
	if !ok {
		gen = s.template
	}
	content, err := gen.Generate(ctx, topic)
	if err != nil {
		return domain.GeneratedPost{}, fmt.Errorf("генерация текста (%s): %w", provider, err)
	}
	if strings.TrimSpace(content) == "" {
		return domain.GeneratedPost{}, fmt.Errorf("генерация текста (%s): пустой результат", provider)
	}

	post := domain.GeneratedPost{
		Content:   content,
		Topic:     topic,
		CreatedAt: time.Now().UTC(),
	}

	if wantsImage && s.images != nil {
		imageURL, err := s.images.Search(ctx, topic)
		if err != nil {
			s.log.Warn().Err(err).Str("topic", topic).Msg("compose: картинка недоступна, пост идёт без неё")
		} else {
			post.ImageURL = imageURL
		}
	}
	return post, nil
}
