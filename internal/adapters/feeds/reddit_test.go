package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRedditFetchCollectsAllSubreddits(t *testing.T) {
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		sub := strings.Split(strings.Trim(r.URL.Path, "/"), "/")[0]
		fmt.Fprintf(w, `{"data":{"children":[{"data":{"title":"Пост из %s"}}]}}`, sub)
	}))
	defer srv.Close()

	source := NewReddit(testHTTPClient(), srv.URL, 10)
	titles, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("выгрузка: %v", err)
	}
	if len(titles) != len(defaultSubreddits) {
		t.Fatalf("ожидали по посту с каждого сабреддита, получили %v", titles)
	}
	for _, agent := range agents {
		if agent != redditUserAgent {
			t.Fatalf("ожидали User-Agent %q, получили %q", redditUserAgent, agent)
		}
	}
}

func TestRedditFailedSubredditIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "programming") {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":{"children":[{"data":{"title":"Выживший пост"}}]}}`)
	}))
	defer srv.Close()

	source := NewReddit(testHTTPClient(), srv.URL, 10)
	titles, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("один упавший сабреддит не должен ронять источник: %v", err)
	}
	if len(titles) != len(defaultSubreddits)-1 {
		t.Fatalf("ожидали %d заголовков, получили %d", len(defaultSubreddits)-1, len(titles))
	}
}

func TestRedditAllSubredditsDownIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "banned", http.StatusForbidden)
	}))
	defer srv.Close()

	source := NewReddit(testHTTPClient(), srv.URL, 10)
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("полная недоступность должна быть ошибкой")
	}
}
