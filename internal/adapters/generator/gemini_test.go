package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	gemini "li-post-bot/internal/infra/gemini"
)

type stubGenerateClient struct {
	responses map[string]gemini.GenerateResponse
	errs      map[string]error
	calls     []string
}

func (s *stubGenerateClient) GenerateContent(_ context.Context, model string, _ gemini.GenerateRequest) (gemini.GenerateResponse, error) {
	s.calls = append(s.calls, model)
	if err, ok := s.errs[model]; ok {
		return gemini.GenerateResponse{}, err
	}
	return s.responses[model], nil
}

func textResponse(text string) gemini.GenerateResponse {
	return gemini.GenerateResponse{
		Candidates: []gemini.Candidate{{Output: text}},
	}
}

func TestGeminiFallsThroughModelChain(t *testing.T) {
	client := &stubGenerateClient{
		errs: map[string]error{
			"gemini-2.5-flash": errors.New("429 rate limited"),
		},
		responses: map[string]gemini.GenerateResponse{
			"gemini-2.5-pro": textResponse("Пост про наблюдаемость"),
		},
	}
	gen := NewGemini(client, NewTemplateSeeded(func(int) int { return 0 }), 0, zerolog.Nop())

	out, err := gen.Generate(context.Background(), "Observability")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if out != "Пост про наблюдаемость" {
		t.Fatalf("ожидали текст второй модели, получили %q", out)
	}
	if len(client.calls) != 2 {
		t.Fatalf("ожидали две попытки, получили %v", client.calls)
	}
}

func TestGeminiEmptyTextIsFailure(t *testing.T) {
	client := &stubGenerateClient{
		responses: map[string]gemini.GenerateResponse{
			"gemini-2.5-flash": {},
			"gemini-2.5-pro":   {},
			"gemini-1.5-flash": textResponse("Наконец-то текст"),
		},
	}
	gen := NewGemini(client, NewTemplateSeeded(func(int) int { return 0 }), 0, zerolog.Nop())

	out, err := gen.Generate(context.Background(), "Edge Computing")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if out != "Наконец-то текст" {
		t.Fatalf("пустые ответы должны считаться провалом модели, получили %q", out)
	}
}

func TestGeminiExhaustedChainUsesTemplates(t *testing.T) {
	boom := errors.New("сервис лежит")
	client := &stubGenerateClient{
		errs: map[string]error{
			"gemini-2.5-flash": boom,
			"gemini-2.5-pro":   boom,
			"gemini-1.5-flash": boom,
		},
	}
	gen := NewGemini(client, NewTemplateSeeded(func(int) int { return 0 }), 0, zerolog.Nop())

	out, err := gen.Generate(context.Background(), "WebAssembly")
	if err != nil {
		t.Fatalf("шаблонный рубеж не должен падать: %v", err)
	}
	if !strings.Contains(out, "WebAssembly") {
		t.Fatalf("ожидали шаблон с темой, получили %q", out)
	}
	if len(client.calls) != 3 {
		t.Fatalf("ожидали перебор всех трёх моделей, получили %v", client.calls)
	}
}
