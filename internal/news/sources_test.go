package news

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KamoLovesCode/news/internal/config"
)

func newsConfig(baseURL string) config.NewsConfig {
	return config.NewsConfig{
		NewsDataKey: "nd-key",
		NewsDataURL: baseURL,
		NewsAPIKey:  "na-key",
		NewsAPIURL:  baseURL,
		Country:     "za",
		Language:    "en",
	}
}

func TestNewsDataFetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"apikey":   r.URL.Query().Get("apikey"),
			"category": r.URL.Query().Get("category"),
			"q":        r.URL.Query().Get("q"),
		}
		json.NewEncoder(w).Encode(newsDataResponse{
			Status: "success",
			Results: []newsDataArticle{
				{Title: "Load Shedding Update", Link: "https://example.com/a", Description: "summary", Category: []string{"business"}, SourceID: "example"},
				{Title: "", Link: "https://example.com/b"}, // dropped: no title
			},
		})
	}))
	t.Cleanup(srv.Close)

	src := NewNewsDataSource(newsConfig(srv.URL), srv.Client())
	articles, err := src.Fetch(t.Context(), "business")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotQuery["apikey"] != "nd-key" || gotQuery["category"] != "business" || gotQuery["q"] != "" {
		t.Fatalf("unexpected query params: %v", gotQuery)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	a := articles[0]
	if a.Title != "Load Shedding Update" || a.Category != "BUSINESS" || a.SourceName != "example" {
		t.Fatalf("unexpected article: %+v", a)
	}
	if a.ImageURL == "" {
		t.Fatal("expected fallback image url")
	}
}

func TestNewsDataFreeTextQuery(t *testing.T) {
	var q string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query().Get("q")
		json.NewEncoder(w).Encode(newsDataResponse{Status: "success"})
	}))
	t.Cleanup(srv.Close)

	src := NewNewsDataSource(newsConfig(srv.URL), srv.Client())
	if _, err := src.Fetch(t.Context(), "rugby world cup"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q != "rugby world cup" {
		t.Fatalf("expected free-text query, got %q", q)
	}
}

func TestNewsAPIFetchTopHeadlines(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewEncoder(w).Encode(newsAPIResponse{
			Status: "ok",
			Articles: []newsAPIArticle{
				{Title: "Markets Rally", URL: "https://example.com/m", Description: "d", Content: "c"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	src := NewNewsAPISource(newsConfig(srv.URL), srv.Client())
	articles, err := src.Fetch(t.Context(), "Latest")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if path != "/top-headlines" {
		t.Fatalf("expected top-headlines endpoint, got %q", path)
	}
	if len(articles) != 1 || articles[0].SourceName != "example.com" {
		t.Fatalf("unexpected articles: %v", articles)
	}
}

func TestNewsAPIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(newsAPIResponse{Status: "error", Message: "apiKeyInvalid"})
	}))
	t.Cleanup(srv.Close)

	src := NewNewsAPISource(newsConfig(srv.URL), srv.Client())
	if _, err := src.Fetch(t.Context(), "latest"); err == nil {
		t.Fatal("expected error from upstream error status")
	}
}
