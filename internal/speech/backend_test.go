package speech

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientHealth(t *testing.T) {
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	c := NewClient(srv.URL, time.Second)
	if !c.Health(t.Context()) {
		t.Fatal("expected healthy")
	}
}

func TestClientHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, 500*time.Millisecond)
	if c.Health(t.Context()) {
		t.Fatal("expected unreachable server to read as unhealthy")
	}
}

func TestClientHealthNonSuccessStatus(t *testing.T) {
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	c := NewClient(srv.URL, time.Second)
	if c.Health(t.Context()) {
		t.Fatal("expected 503 to read as unhealthy")
	}
}

func TestClientSynthesize(t *testing.T) {
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/synthesize" {
			http.NotFound(w, r)
			return
		}
		var req SynthesisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Text != "hello" || req.Engine != "gtts" || req.Speed != 1.5 {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(SynthesisResult{AudioURL: "/audio/abc.mp3", FileID: "abc"})
	}))

	c := NewClient(srv.URL, time.Second)
	result, err := c.Synthesize(t.Context(), SynthesisRequest{Text: "hello", Voice: "default", Speed: 1.5, Engine: "gtts"})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if result.FileID != "abc" {
		t.Fatalf("unexpected file id %q", result.FileID)
	}
	if result.AudioURL != srv.URL+"/audio/abc.mp3" {
		t.Fatalf("expected absolute audio url, got %q", result.AudioURL)
	}
}

func TestClientSynthesizeFailure(t *testing.T) {
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine exploded", http.StatusInternalServerError)
	}))

	c := NewClient(srv.URL, time.Second)
	_, err := c.Synthesize(t.Context(), SynthesisRequest{Text: "hello", Engine: "pyttsx3"})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestClientVoices(t *testing.T) {
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]Voice{
			{ID: "0", Name: "Alice", Gender: "female"},
			{ID: "1", Name: "Bob", Gender: "male"},
		})
	}))

	c := NewClient(srv.URL, time.Second)
	voices, err := c.Voices(t.Context())
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	if len(voices) != 2 || voices[0].Name != "Alice" {
		t.Fatalf("unexpected voices: %v", voices)
	}
}

func TestClientDeleteAudio(t *testing.T) {
	var deletedPath string
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		deletedPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	c := NewClient(srv.URL, time.Second)
	if err := c.DeleteAudio(t.Context(), "abc"); err != nil {
		t.Fatalf("delete audio: %v", err)
	}
	if deletedPath != "/audio/abc" {
		t.Fatalf("unexpected delete path %q", deletedPath)
	}
}
