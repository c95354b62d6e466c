package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/KamoLovesCode/news/internal/config"
)

// Source fetches articles for a topic from one upstream feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context, topic string) ([]Article, error)
}

// normalizeTopic folds UI labels onto upstream query terms.
func normalizeTopic(topic string) string {
	return strings.ReplaceAll(strings.ToLower(topic), "world news", "world")
}

func fallbackImage(title string) string {
	return "https://picsum.photos/seed/" + url.QueryEscape(title) + "/800/600"
}

// newsDataSource queries the newsdata.io feed.
type newsDataSource struct {
	cfg  config.NewsConfig
	http *http.Client
}

func NewNewsDataSource(cfg config.NewsConfig, client *http.Client) Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &newsDataSource{cfg: cfg, http: client}
}

func (s *newsDataSource) Name() string { return "newsdata.io" }

type newsDataArticle struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	ImageURL    string   `json:"image_url"`
	Category    []string `json:"category"`
	SourceID    string   `json:"source_id"`
}

type newsDataResponse struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Results      []newsDataArticle `json:"results"`
}

func (s *newsDataSource) Fetch(ctx context.Context, topic string) ([]Article, error) {
	params := url.Values{}
	params.Set("apikey", s.cfg.NewsDataKey)
	params.Set("country", s.cfg.Country)
	params.Set("language", s.cfg.Language)

	lower := normalizeTopic(topic)
	switch {
	case lower == "latest" || lower == "top":
		params.Set("category", "top")
	case uiCategories[lower]:
		params.Set("category", lower)
	default:
		params.Set("q", topic)
	}

	var resp newsDataResponse
	if err := getJSON(ctx, s.http, s.cfg.NewsDataURL+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("newsdata.io: %w", err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("newsdata.io returned status %q", resp.Status)
	}

	articles := make([]Article, 0, len(resp.Results))
	for _, a := range resp.Results {
		if a.Title == "" || a.Link == "" {
			continue
		}
		art := Article{
			Title:       a.Title,
			Summary:     orDefault(a.Description, "No summary available."),
			FullContent: firstNonEmpty(a.Content, a.Description, "Full content not available."),
			Category:    "General",
			ImageURL:    orDefault(a.ImageURL, fallbackImage(a.Title)),
			SourceURL:   a.Link,
			SourceName:  orDefault(a.SourceID, hostOf(a.Link)),
		}
		if len(a.Category) > 0 {
			art.Category = strings.ToUpper(a.Category[0])
		}
		articles = append(articles, art)
	}
	return articles, nil
}

// newsAPISource queries the newsapi.org feed.
type newsAPISource struct {
	cfg  config.NewsConfig
	http *http.Client
}

func NewNewsAPISource(cfg config.NewsConfig, client *http.Client) Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &newsAPISource{cfg: cfg, http: client}
}

func (s *newsAPISource) Name() string { return "newsapi.org" }

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	Content     string `json:"content"`
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Articles []newsAPIArticle `json:"articles"`
	Message  string           `json:"message"`
}

func (s *newsAPISource) Fetch(ctx context.Context, topic string) ([]Article, error) {
	lower := normalizeTopic(topic)
	params := url.Values{}
	params.Set("apiKey", s.cfg.NewsAPIKey)
	params.Set("language", s.cfg.Language)

	endpoint := s.cfg.NewsAPIURL + "/everything"
	switch {
	case uiCategories[lower]:
		endpoint = s.cfg.NewsAPIURL + "/top-headlines"
		params.Set("category", lower)
		params.Set("country", s.cfg.Country)
	case lower == "latest" || lower == "top":
		endpoint = s.cfg.NewsAPIURL + "/top-headlines"
		params.Set("country", s.cfg.Country)
	default:
		params.Set("q", topic)
		params.Set("sortBy", "relevancy")
	}

	var resp newsAPIResponse
	if err := getJSON(ctx, s.http, endpoint+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("newsapi.org: %w", err)
	}
	if resp.Status != "ok" {
		msg := resp.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("newsapi.org returned %q", msg)
	}

	category := "General"
	if uiCategories[lower] {
		category = strings.ToUpper(lower)
	}

	articles := make([]Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		articles = append(articles, Article{
			Title:       a.Title,
			Summary:     orDefault(a.Description, "No summary available."),
			FullContent: firstNonEmpty(a.Content, a.Description, "Full content not available."),
			Category:    category,
			ImageURL:    orDefault(a.URLToImage, fallbackImage(a.Title)),
			SourceURL:   a.URL,
			SourceName:  orDefault(a.Source.Name, hostOf(a.URL)),
		})
	}
	return articles, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("request failed with status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
