package news

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Aggregator fans a topic out to all sources in parallel, tolerates partial
// failure, and merges the results: paywalled articles dropped, duplicates
// collapsed by title, order shuffled, list capped.
type Aggregator struct {
	sources       []Source
	maxArticles   int
	filterPaywall bool
	fetchTimeout  time.Duration
	log           *slog.Logger
	shuffle       func([]Article)
}

func NewAggregator(sources []Source, maxArticles int, filterPaywall bool, fetchTimeout time.Duration, log *slog.Logger) *Aggregator {
	return &Aggregator{
		sources:       sources,
		maxArticles:   maxArticles,
		filterPaywall: filterPaywall,
		fetchTimeout:  fetchTimeout,
		log:           log.With(slog.String("component", "news-aggregator")),
		shuffle: func(articles []Article) {
			rand.Shuffle(len(articles), func(i, j int) {
				articles[i], articles[j] = articles[j], articles[i]
			})
		},
	}
}

// Fetch returns merged articles for a topic. The whole fan-out is bounded by
// the configured fetch timeout. A single failing source is logged and
// skipped; only all sources failing is an error.
func (a *Aggregator) Fetch(ctx context.Context, topic string) ([]Article, error) {
	if a.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
	}

	type result struct {
		source   string
		articles []Article
		err      error
	}

	results := make([]result, len(a.sources))
	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			articles, err := src.Fetch(ctx, topic)
			results[i] = result{source: src.Name(), articles: articles, err: err}
		}(i, src)
	}
	wg.Wait()

	var merged []Article
	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			a.log.Warn("news source failed", slog.String("source", r.source), slog.String("error", r.err.Error()))
			continue
		}
		merged = append(merged, r.articles...)
	}
	if len(merged) == 0 {
		if failures == len(a.sources) && failures > 0 {
			return nil, errors.New("could not fetch news from any source")
		}
		return []Article{}, nil
	}

	if a.filterPaywall {
		kept := merged[:0]
		for _, art := range merged {
			if !isPaywalled(art) {
				kept = append(kept, art)
			}
		}
		merged = kept
	}

	merged = dedupeByTitle(merged)
	a.shuffle(merged)
	if a.maxArticles > 0 && len(merged) > a.maxArticles {
		merged = merged[:a.maxArticles]
	}
	return merged, nil
}

var paywallIndicators = []string{
	"[removed]",
	"to continue reading",
	"subscribe to read",
	"log in to read",
	"premium content",
}

func isPaywalled(a Article) bool {
	content := strings.ToLower(a.Title + " " + a.FullContent + " " + a.Summary)
	for _, indicator := range paywallIndicators {
		if strings.Contains(content, indicator) {
			return true
		}
	}
	return false
}

// dedupeByTitle keeps the last article seen for each lowercased title,
// preserving first-seen positions.
func dedupeByTitle(articles []Article) []Article {
	index := make(map[string]int, len(articles))
	var unique []Article
	for _, a := range articles {
		key := strings.ToLower(a.Title)
		if at, seen := index[key]; seen {
			unique[at] = a
			continue
		}
		index[key] = len(unique)
		unique = append(unique, a)
	}
	return unique
}
