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

const redditBaseURL = "https://www.reddit.com/r"

const redditUserAgent = "li-post-bot/1.0"

var defaultSubreddits = []string{
	"programming", "technology", "cybersecurity", "MachineLearning",
	"artificial", "webdev", "devops",
}

// Reddit выгружает заголовки горячих постов из фиксированного набора сабреддитов.
// Один постраничный запрос на сабреддит; упавший сабреддит пропускается.
type Reddit struct {
	client     *httpx.Client
	baseURL    string
	subreddits []string
	limit      int
}

var _ domain.TopicSource = (*Reddit)(nil)

// NewReddit создаёт источник.
func NewReddit(client *httpx.Client, baseURL string, limit int) *Reddit {
	if baseURL == "" {
		baseURL = redditBaseURL
	}
	if limit <= 0 {
		limit = 10
	}
	return &Reddit{client: client, baseURL: baseURL, subreddits: defaultSubreddits, limit: limit}
}

// Name возвращает имя источника.
func (r *Reddit) Name() string { return "reddit" }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string `json:"title"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch возвращает заголовки горячих постов всех сабреддитов.
func (r *Reddit) Fetch(ctx context.Context) ([]string, error) {
	var titles []string
	var lastErr error
	for _, sub := range r.subreddits {
		subTitles, err := r.fetchSubreddit(ctx, sub)
		if err != nil {
			metrics.TopicFetchErrors.WithLabelValues(r.Name()).Inc()
			lastErr = err
			continue
		}
		titles = append(titles, subTitles...)
	}
	if len(titles) == 0 && lastErr != nil {
		return nil, fmt.Errorf("reddit: все сабреддиты недоступны: %w", lastErr)
	}
	return titles, nil
}

func (r *Reddit) fetchSubreddit(ctx context.Context, sub string) ([]string, error) {
	url := fmt.Sprintf("%s/%s/hot.json?limit=%d", r.baseURL, sub, r.limit)
	start := time.Now()
	resp, err := r.client.Get(ctx, url, map[string]string{"User-Agent": redditUserAgent})
	metrics.ObserveNetworkRequest("reddit", "hot", sub, start, err)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("reddit: r/%s: статус %d", sub, resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("reddit: r/%s: декодирование: %w", sub, err)
	}
	titles := make([]string, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Data.Title != "" {
			titles = append(titles, child.Data.Title)
		}
	}
	return titles, nil
}
