package autopost

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"li-post-bot/internal/infra/httpx"
)

const maxImageBytes = 10 << 20

// ImageFetcher скачивает картинку для переноса в буфер обмена.
type ImageFetcher struct {
	http *httpx.Client
}

// NewImageFetcher создаёт загрузчик картинок.
func NewImageFetcher(client *httpx.Client) *ImageFetcher {
	return &ImageFetcher{http: client}
}

// Fetch возвращает байты картинки и её MIME-тип. Тип берётся из
// Content-Type ответа, при его отсутствии из расширения URL,
// в крайнем случае image/png.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := f.http.Get(ctx, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("картинка не скачана: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("картинка не скачана: статус %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("картинка не дочитана: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("картинка пустая: %s", url)
	}
	return data, inferMIME(resp.Header.Get("Content-Type"), url), nil
}

func inferMIME(contentType, url string) string {
	if ct := strings.TrimSpace(strings.Split(contentType, ";")[0]); strings.HasPrefix(ct, "image/") {
		return ct
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(strings.Split(url, "?")[0]), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "png":
		return "image/png"
	}
	return "image/png"
}
