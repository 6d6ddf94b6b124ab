package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"li-post-bot/internal/infra/httpx"
)

func testHTTPClient() *httpx.Client {
	return httpx.New(time.Second, 1, time.Millisecond)
}

func TestHackerNewsFetchTwoStep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/topstories.json":
			fmt.Fprint(w, `[1,2,3,4]`)
		case "/item/1.json":
			fmt.Fprint(w, `{"title":"Go 1.25 released"}`)
		case "/item/2.json":
			fmt.Fprint(w, `{"title":"Kubernetes operators explained"}`)
		case "/item/3.json":
			// Удалённая история: title отсутствует.
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	source := NewHackerNews(testHTTPClient(), srv.URL, 3)
	titles, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("выгрузка: %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("ожидали два заголовка, получили %v", titles)
	}
	if titles[0] != "Go 1.25 released" || titles[1] != "Kubernetes operators explained" {
		t.Fatalf("неожиданные заголовки: %v", titles)
	}
}

func TestHackerNewsLimitsStories(t *testing.T) {
	var itemCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			fmt.Fprint(w, `[1,2,3,4,5,6,7,8,9,10]`)
			return
		}
		itemCalls++
		fmt.Fprint(w, `{"title":"story"}`)
	}))
	defer srv.Close()

	source := NewHackerNews(testHTTPClient(), srv.URL, 5)
	if _, err := source.Fetch(context.Background()); err != nil {
		t.Fatalf("выгрузка: %v", err)
	}
	if itemCalls != 5 {
		t.Fatalf("ожидали пять запросов историй, получили %d", itemCalls)
	}
}

func TestHackerNewsBrokenItemIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/topstories.json":
			fmt.Fprint(w, `[1,2]`)
		case "/item/1.json":
			fmt.Fprint(w, `не json`)
		case "/item/2.json":
			fmt.Fprint(w, `{"title":"Surviving story"}`)
		}
	}))
	defer srv.Close()

	source := NewHackerNews(testHTTPClient(), srv.URL, 2)
	titles, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("одна битая история не должна ронять источник: %v", err)
	}
	if len(titles) != 1 || titles[0] != "Surviving story" {
		t.Fatalf("ожидали один выживший заголовок, получили %v", titles)
	}
}
