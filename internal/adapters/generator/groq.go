package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"li-post-bot/internal/domain"
	groq "li-post-bot/internal/infra/groq"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (groq.ChatCompletionResponse, error)
}

// Groq реализует генератор постов через Groq Chat Completions.
type Groq struct {
	client  chatClient
	model   string
	timeout time.Duration
}

var _ domain.Generator = (*Groq)(nil)

// NewGroq создаёт провайдер генерации.
func NewGroq(client chatClient, model string, timeout time.Duration) *Groq {
	if model == "" {
		model = "llama3-8b-8192"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Groq{client: client, model: model, timeout: timeout}
}

// Generate строит текст поста по теме.
func (g *Groq) Generate(ctx context.Context, topic string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := groq.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   500,
		Messages: []groq.ChatMessage{
			{
				Role:    groq.RoleSystem,
				Content: "You are a tech industry expert creating LinkedIn posts. Write engaging, professional posts (150-250 words) with current industry insights, relevant hashtags, and modern perspectives. Include emojis sparingly for engagement.",
			},
			{
				Role:    groq.RoleUser,
				Content: fmt.Sprintf("Create a LinkedIn post about: %s. Make it relevant to current tech trends, informative, engaging, and include 3-5 relevant hashtags. Focus on current industry challenges and opportunities.", topic),
			},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("groq completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq completion: пустой ответ")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("groq completion: пустой текст")
	}
	return content, nil
}
