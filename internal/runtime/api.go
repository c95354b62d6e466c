package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KamoLovesCode/news/internal/news"
	"github.com/KamoLovesCode/news/internal/speech"
)

// newsFetcher is the aggregator boundary the API needs.
type newsFetcher interface {
	Fetch(ctx context.Context, topic string) ([]news.Article, error)
}

// api carries the request handlers for the JSON surface consumed by the UI.
type api struct {
	mgr    *speech.Manager
	news   newsFetcher
	logger *slog.Logger
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/news", a.handleNews)
	mux.HandleFunc("POST /api/speech/speak", a.handleSpeak)
	mux.HandleFunc("POST /api/speech/pause", a.handlePause)
	mux.HandleFunc("POST /api/speech/resume", a.handleResume)
	mux.HandleFunc("POST /api/speech/stop", a.handleStop)
	mux.HandleFunc("PUT /api/speech/volume", a.handleVolume)
	mux.HandleFunc("GET /api/speech/config", a.handleGetConfig)
	mux.HandleFunc("PATCH /api/speech/config", a.handleUpdateConfig)
	mux.HandleFunc("GET /api/speech/voices", a.handleVoices)
	mux.HandleFunc("GET /api/speech/status", a.handleStatus)
	mux.HandleFunc("GET /api/speech/health", a.handleSpeechHealth)
}

func (a *api) handleNews(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = "latest"
	}
	articles, err := a.news.Fetch(r.Context(), topic)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

type speakRequest struct {
	Text   string  `json:"text"`
	Voice  string  `json:"voice,omitempty"`
	Speed  float64 `json:"speed,omitempty"`
	Engine string  `json:"engine,omitempty"`
}

func (a *api) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	overrides := &speech.Request{Voice: req.Voice, Speed: req.Speed}
	if req.Engine != "" {
		engine, err := speech.ParseEngine(req.Engine)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		overrides.Engine = &engine
	}

	if err := a.mgr.Speak(r.Context(), req.Text, overrides); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, speech.ErrUnsupportedEngine) {
			status = http.StatusNotImplemented
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": a.mgr.Status().String()})
}

func (a *api) handlePause(w http.ResponseWriter, r *http.Request) {
	a.mgr.Pause()
	writeJSON(w, http.StatusOK, map[string]string{"status": a.mgr.Status().String()})
}

func (a *api) handleResume(w http.ResponseWriter, r *http.Request) {
	a.mgr.Resume()
	writeJSON(w, http.StatusOK, map[string]string{"status": a.mgr.Status().String()})
}

func (a *api) handleStop(w http.ResponseWriter, r *http.Request) {
	a.mgr.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": a.mgr.Status().String()})
}

func (a *api) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.mgr.SetVolume(req.Volume)
	writeJSON(w, http.StatusOK, map[string]float64{"volume": a.mgr.GetConfig().Volume})
}

type configPayload struct {
	Engine      string  `json:"engine"`
	Voice       string  `json:"voice"`
	Speed       float64 `json:"speed"`
	Volume      float64 `json:"volume"`
	AutoCleanup bool    `json:"autoCleanup"`
}

func configToPayload(cfg speech.SynthesisConfig) configPayload {
	return configPayload{
		Engine:      cfg.Engine.String(),
		Voice:       cfg.Voice,
		Speed:       cfg.Speed,
		Volume:      cfg.Volume,
		AutoCleanup: cfg.AutoCleanup,
	}
}

func (a *api) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, configToPayload(a.mgr.GetConfig()))
}

type configUpdateRequest struct {
	Engine      *string  `json:"engine,omitempty"`
	Voice       *string  `json:"voice,omitempty"`
	Speed       *float64 `json:"speed,omitempty"`
	Volume      *float64 `json:"volume,omitempty"`
	AutoCleanup *bool    `json:"autoCleanup,omitempty"`
}

func (a *api) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req configUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	update := speech.ConfigUpdate{
		Voice:       req.Voice,
		Speed:       req.Speed,
		Volume:      req.Volume,
		AutoCleanup: req.AutoCleanup,
	}
	if req.Engine != nil {
		engine, err := speech.ParseEngine(*req.Engine)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		update.Engine = &engine
	}
	cfg := a.mgr.UpdateConfig(update)
	writeJSON(w, http.StatusOK, configToPayload(cfg))
}

func (a *api) handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.mgr.Voices(r.Context()))
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": a.mgr.Status().String()})
}

func (a *api) handleSpeechHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"healthy": a.mgr.CheckServerHealth(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
