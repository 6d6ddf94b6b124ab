package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
	gemini "li-post-bot/internal/infra/gemini"
)

type generateClient interface {
	GenerateContent(ctx context.Context, model string, req gemini.GenerateRequest) (gemini.GenerateResponse, error)
}

// Модели пробуются по порядку; каждая попытка независима.
var geminiModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-1.5-flash",
}

// Gemini реализует генератор постов через Google Gemini с цепочкой моделей.
// Если все модели провалились или вернули пустой текст, генерация падает
// на локальные шаблоны — вызывающий всегда получает текст.
type Gemini struct {
	client   generateClient
	fallback domain.Generator
	timeout  time.Duration
	log      zerolog.Logger
}

var _ domain.Generator = (*Gemini)(nil)

// NewGemini создаёт провайдер генерации.
func NewGemini(client generateClient, fallback domain.Generator, timeout time.Duration, logger zerolog.Logger) *Gemini {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gemini{client: client, fallback: fallback, timeout: timeout, log: logger}
}

// Generate строит текст поста по теме, перебирая модели по порядку.
func (g *Gemini) Generate(ctx context.Context, topic string) (string, error) {
	attempts := make([]domain.Attempt[string], 0, len(geminiModels))
	for _, model := range geminiModels {
		model := model
		attempts = append(attempts, domain.Attempt[string]{
			Name: model,
			Run: func(ctx context.Context) (string, error) {
				return g.generateWithModel(ctx, model, topic)
			},
		})
	}

	text, model, err := domain.FirstSuccess(ctx, attempts, func(name string, err error) {
		g.log.Warn().Str("model", name).Err(err).Msg("gemini: модель не ответила")
	})
	if err == nil {
		g.log.Debug().Str("model", model).Msg("gemini: текст получен")
		return text, nil
	}

	g.log.Warn().Err(err).Msg("gemini: все модели провалились, переходим на шаблоны")
	return g.fallback.Generate(ctx, topic)
}

func (g *Gemini) generateWithModel(ctx context.Context, model, topic string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := gemini.GenerateRequest{
		Contents: []gemini.Content{{
			Parts: []gemini.Part{{
				Text: fmt.Sprintf(`Create a professional LinkedIn post about "%s". Make it engaging, informative, and relevant to current tech industry trends. Include insights about modern challenges, opportunities, and best practices. Keep it 150-250 words with 3-5 relevant hashtags. Include 1-2 emojis for engagement.`, topic),
			}},
		}},
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 500,
			TopP:            0.8,
			TopK:            40,
		},
		SafetySettings: []gemini.SafetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
		},
	}

	resp, err := g.client.GenerateContent(ctx, model, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.ExtractText())
	if text == "" {
		return "", fmt.Errorf("%s: пустой текст в ответе", model)
	}
	return text, nil
}
