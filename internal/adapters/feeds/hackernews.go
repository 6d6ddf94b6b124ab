package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/httpx"
	"li-post-bot/internal/infra/metrics"
)

const hnBaseURL = "https://hacker-news.firebaseio.com/v0"

// HackerNews выгружает заголовки топовых историй Hacker News.
// Двухшаговая схема: сначала индекс id, затем элемент по каждому id.
type HackerNews struct {
	client     *httpx.Client
	baseURL    string
	maxStories int
}

var _ domain.TopicSource = (*HackerNews)(nil)

// NewHackerNews создаёт источник.
func NewHackerNews(client *httpx.Client, baseURL string, maxStories int) *HackerNews {
	if baseURL == "" {
		baseURL = hnBaseURL
	}
	if maxStories <= 0 {
		maxStories = 15
	}
	return &HackerNews{client: client, baseURL: baseURL, maxStories: maxStories}
}

// Name возвращает имя источника.
func (h *HackerNews) Name() string { return "hackernews" }

type hnItem struct {
	Title string `json:"title"`
}

// Fetch возвращает заголовки верхних историй.
func (h *HackerNews) Fetch(ctx context.Context) ([]string, error) {
	start := time.Now()
	resp, err := h.client.Get(ctx, h.baseURL+"/topstories.json", nil)
	metrics.ObserveNetworkRequest("hackernews", "topstories", "index", start, err)
	if err != nil {
		return nil, fmt.Errorf("hackernews: индекс историй: %w", err)
	}
	defer resp.Body.Close()

	var ids []int64
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("hackernews: декодирование индекса: %w", err)
	}
	if len(ids) > h.maxStories {
		ids = ids[:h.maxStories]
	}

	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		title, err := h.fetchItem(ctx, id)
		if err != nil {
			// Отдельная история не должна ронять весь источник.
			metrics.TopicFetchErrors.WithLabelValues(h.Name()).Inc()
			continue
		}
		if title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

func (h *HackerNews) fetchItem(ctx context.Context, id int64) (string, error) {
	start := time.Now()
	resp, err := h.client.Get(ctx, fmt.Sprintf("%s/item/%d.json", h.baseURL, id), nil)
	metrics.ObserveNetworkRequest("hackernews", "item", "item", start, err)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var item hnItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return "", err
	}
	return item.Title, nil
}
