package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/metrics"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Client выполняет generateContent запросы к Google Gemini.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient создаёт клиента Gemini.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout + 5*time.Second}
	return &Client{http: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// GenerateRequest описывает тело запроса generateContent.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []SafetySetting   `json:"safetySettings,omitempty"`
}

// Content — один блок промпта.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part — фрагмент контента.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig задаёт параметры сэмплирования.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

// SafetySetting ослабляет или ужесточает фильтры вредного контента.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// GenerateResponse описывает ответ модели. Формат кандидатов у Gemini
// исторически плавает, поэтому поля перекрывают несколько известных форм.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate — один вариант ответа.
type Candidate struct {
	Content json.RawMessage `json:"content,omitempty"`
	Output  string          `json:"output,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// ExtractText достаёт текст из кандидата, перебирая известные формы ответа:
// content.parts[].text, затем output, затем text, затем content-строка.
func (r GenerateResponse) ExtractText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	cand := r.Candidates[0]

	if len(cand.Content) > 0 {
		var structured struct {
			Parts []Part `json:"parts"`
		}
		if err := json.Unmarshal(cand.Content, &structured); err == nil {
			for _, part := range structured.Parts {
				if strings.TrimSpace(part.Text) != "" {
					return part.Text
				}
			}
		}
	}
	if strings.TrimSpace(cand.Output) != "" {
		return cand.Output
	}
	if strings.TrimSpace(cand.Text) != "" {
		return cand.Text
	}
	if len(cand.Content) > 0 {
		var plain string
		if err := json.Unmarshal(cand.Content, &plain); err == nil && strings.TrimSpace(plain) != "" {
			return plain
		}
	}
	return ""
}

// GenerateContent вызывает /{model}:generateContent.
func (c *Client) GenerateContent(ctx context.Context, model string, req GenerateRequest) (GenerateResponse, error) {
	if c.apiKey == "" {
		return GenerateResponse{}, fmt.Errorf("gemini: %w", domain.ErrNotConfigured)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("gemini: marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, err)
		return GenerateResponse{}, fmt.Errorf("gemini: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, err)
		return GenerateResponse{}, fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("gemini: %s: unexpected status %d", model, resp.StatusCode)
		metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, err)
		return GenerateResponse{}, err
	}
	var generated GenerateResponse
	if err := json.Unmarshal(respBody, &generated); err != nil {
		metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, err)
		return GenerateResponse{}, fmt.Errorf("gemini: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, nil)
	metrics.ObserveLLMGeneration(model, time.Since(start), 0, 0, 0)
	return generated, nil
}
