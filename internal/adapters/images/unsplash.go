package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/httpx"
	"li-post-bot/internal/infra/metrics"
)

const unsplashBaseURL = "https://api.unsplash.com/search/photos"

// Unsplash ищет иллюстрацию по теме. Без ключа или при любой ошибке
// падает на детерминированную заглушку picsum: провал картинки никогда
// не доходит до вызывающего.
type Unsplash struct {
	client    *httpx.Client
	baseURL   string
	accessKey string
	log       zerolog.Logger
}

var _ domain.ImageProvider = (*Unsplash)(nil)

// NewUnsplash создаёт провайдер картинок.
func NewUnsplash(client *httpx.Client, baseURL, accessKey string, logger zerolog.Logger) *Unsplash {
	if baseURL == "" {
		baseURL = unsplashBaseURL
	}
	return &Unsplash{client: client, baseURL: baseURL, accessKey: accessKey, log: logger}
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Search возвращает URL картинки по теме.
func (u *Unsplash) Search(ctx context.Context, query string) (string, error) {
	if u.accessKey == "" {
		return PlaceholderURL(query), nil
	}

	endpoint := fmt.Sprintf("%s?query=%s&per_page=1&orientation=landscape&client_id=%s",
		u.baseURL, url.QueryEscape(query+" technology"), url.QueryEscape(u.accessKey))
	start := time.Now()
	resp, err := u.client.Get(ctx, endpoint, nil)
	metrics.ObserveNetworkRequest("unsplash", "search_photos", "photos", start, err)
	if err != nil {
		u.log.Warn().Err(err).Msg("unsplash: поиск не удался, используем заглушку")
		return PlaceholderURL(query), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		u.log.Warn().Int("status", resp.StatusCode).Msg("unsplash: ошибка API, используем заглушку")
		return PlaceholderURL(query), nil
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Results) == 0 {
		return PlaceholderURL(query), nil
	}
	return parsed.Results[0].URLs.Regular, nil
}
