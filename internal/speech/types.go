package speech

import (
	"errors"
	"fmt"
)

// Engine identifies a synthesis backend variant.
type Engine int

const (
	// EnginePyttsx3 renders audio on the remote server via pyttsx3.
	EnginePyttsx3 Engine = iota
	// EngineGTTS renders audio on the remote server via Google TTS.
	EngineGTTS
	// EngineLocal drives the on-device speech command, no network involved.
	EngineLocal
)

func (e Engine) String() string {
	switch e {
	case EnginePyttsx3:
		return "pyttsx3"
	case EngineGTTS:
		return "gtts"
	case EngineLocal:
		return "local"
	default:
		return fmt.Sprintf("engine(%d)", int(e))
	}
}

// Remote reports whether the engine requires the synthesis server.
func (e Engine) Remote() bool {
	return e == EnginePyttsx3 || e == EngineGTTS
}

// ParseEngine maps a wire name onto an Engine.
func ParseEngine(s string) (Engine, error) {
	switch s {
	case "pyttsx3":
		return EnginePyttsx3, nil
	case "gtts":
		return EngineGTTS, nil
	case "local":
		return EngineLocal, nil
	default:
		return EnginePyttsx3, fmt.Errorf("unknown engine %q", s)
	}
}

// Status is the observable lifecycle state of the current session.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// SynthesisConfig is the persisted synthesis preference record.
type SynthesisConfig struct {
	Engine      Engine  `json:"engine"`
	Voice       string  `json:"voice"` // "default" means engine-chosen
	Speed       float64 `json:"speed"`
	Volume      float64 `json:"volume"`
	AutoCleanup bool    `json:"autoCleanup"`
}

// ConfigUpdate carries a partial SynthesisConfig mutation; nil fields are
// left unchanged.
type ConfigUpdate struct {
	Engine      *Engine  `json:"engine,omitempty"`
	Voice       *string  `json:"voice,omitempty"`
	Speed       *float64 `json:"speed,omitempty"`
	Volume      *float64 `json:"volume,omitempty"`
	AutoCleanup *bool    `json:"autoCleanup,omitempty"`
}

// Request carries per-call overrides for Speak. Zero/empty fields fall back
// to the stored SynthesisConfig.
type Request struct {
	Voice  string
	Speed  float64
	Engine *Engine
}

// Voice describes an available voice, remote or local.
type Voice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender,omitempty"`
	Age    string `json:"age,omitempty"`
}

// Error taxonomy. Only ErrUnsupportedEngine and an exhausted-fallback
// playback/backend failure surface from Speak; everything else is absorbed
// and observable through the error topic or logs.
var (
	ErrUnsupportedEngine  = errors.New("speech: engine unavailable on this platform")
	ErrBackendUnavailable = errors.New("speech: synthesis server unavailable")
	ErrPlaybackFailure    = errors.New("speech: playback failed")
)

// ConfigStore persists the SynthesisConfig across restarts.
type ConfigStore interface {
	// Load returns the stored config, or ok=false when nothing was saved yet.
	Load() (cfg SynthesisConfig, ok bool, err error)
	Save(cfg SynthesisConfig) error
}
