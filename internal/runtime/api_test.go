package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KamoLovesCode/news/internal/news"
	"github.com/KamoLovesCode/news/internal/speech"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubFetcher struct {
	articles []news.Article
	err      error
}

func (s *stubFetcher) Fetch(context.Context, string) ([]news.Article, error) {
	return s.articles, s.err
}

func newTestAPI(t *testing.T, fetcher newsFetcher) (*api, *speech.Manager) {
	t.Helper()
	mgr := speech.NewManager(speech.Options{
		Backend: speech.NewMockBackend(),
		Local:   &speech.MockLocalEngine{Delay: time.Minute},
		Player:  &speech.MockPlayer{Delay: time.Minute},
		Events:  &speech.Events{},
		Logger:  newLogger(),
		Defaults: speech.SynthesisConfig{
			Engine:      speech.EnginePyttsx3,
			Voice:       "default",
			Speed:       1.0,
			Volume:      0.8,
			AutoCleanup: true,
		},
	})
	t.Cleanup(mgr.Close)
	if fetcher == nil {
		fetcher = &stubFetcher{}
	}
	return &api{mgr: mgr, news: fetcher, logger: newLogger()}, mgr
}

func serve(t *testing.T, a *api, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	a.register(mux)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSpeakEndpoint(t *testing.T) {
	a, mgr := newTestAPI(t, nil)
	rec := serve(t, a, http.MethodPost, "/api/speech/speak", `{"text":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if mgr.Status() != speech.StatusPlaying {
		t.Fatalf("expected playing, got %v", mgr.Status())
	}
}

func TestSpeakEndpointRejectsBadEngine(t *testing.T) {
	a, _ := newTestAPI(t, nil)
	rec := serve(t, a, http.MethodPost, "/api/speech/speak", `{"text":"hi","engine":"webspeech"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPauseResumeStopEndpoints(t *testing.T) {
	a, mgr := newTestAPI(t, nil)
	serve(t, a, http.MethodPost, "/api/speech/speak", `{"text":"hello"}`)

	serve(t, a, http.MethodPost, "/api/speech/pause", "")
	if mgr.Status() != speech.StatusPaused {
		t.Fatalf("expected paused, got %v", mgr.Status())
	}
	serve(t, a, http.MethodPost, "/api/speech/resume", "")
	if mgr.Status() != speech.StatusPlaying {
		t.Fatalf("expected playing, got %v", mgr.Status())
	}
	serve(t, a, http.MethodPost, "/api/speech/stop", "")
	if mgr.Status() != speech.StatusIdle {
		t.Fatalf("expected idle, got %v", mgr.Status())
	}
}

func TestVolumeEndpointClamps(t *testing.T) {
	a, mgr := newTestAPI(t, nil)
	rec := serve(t, a, http.MethodPut, "/api/speech/volume", `{"volume":1.7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := mgr.GetConfig().Volume; got != 1.0 {
		t.Fatalf("expected clamped volume, got %v", got)
	}
}

func TestConfigEndpoints(t *testing.T) {
	a, _ := newTestAPI(t, nil)

	rec := serve(t, a, http.MethodPatch, "/api/speech/config", `{"volume":0.4,"engine":"gtts"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, a, http.MethodGet, "/api/speech/config", "")
	var cfg configPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Volume != 0.4 || cfg.Engine != "gtts" || cfg.Speed != 1.0 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestVoicesEndpoint(t *testing.T) {
	a, _ := newTestAPI(t, nil)
	rec := serve(t, a, http.MethodGet, "/api/speech/voices", "")
	var voices []speech.Voice
	if err := json.Unmarshal(rec.Body.Bytes(), &voices); err != nil {
		t.Fatalf("decode voices: %v", err)
	}
	if len(voices) == 0 {
		t.Fatal("expected voices from the mock backend")
	}
}

func TestNewsEndpoint(t *testing.T) {
	a, _ := newTestAPI(t, &stubFetcher{articles: []news.Article{{Title: "A"}}})
	rec := serve(t, a, http.MethodGet, "/api/news?topic=technology", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var articles []news.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &articles); err != nil {
		t.Fatalf("decode articles: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "A" {
		t.Fatalf("unexpected articles: %v", articles)
	}
}

func TestNewsEndpointUpstreamFailure(t *testing.T) {
	a, _ := newTestAPI(t, &stubFetcher{err: errors.New("all feeds down")})
	rec := serve(t, a, http.MethodGet, "/api/news", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
