package httpx

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	defaultRetries = 3
	defaultDelay   = time.Second
)

// Client — HTTP клиент для идемпотентных read-only запросов с повторами.
// Повторы с линейно растущей задержкой; публикации через него не ходят.
type Client struct {
	http       *http.Client
	maxRetries int
	delay      time.Duration
}

// New создаёт клиента с ограниченными повторами.
func New(timeout time.Duration, maxRetries int, delay time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxRetries <= 0 {
		maxRetries = defaultRetries
	}
	if delay <= 0 {
		delay = defaultDelay
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		delay:      delay,
	}
}

// Get выполняет GET с повторами. Ответ с кодом >= 500 тоже считается
// поводом для повтора, 4xx возвращается сразу.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delay * time.Duration(attempt)):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpx: build request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("httpx: status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("httpx: %d попыток исчерпано: %w", c.maxRetries, lastErr)
}
