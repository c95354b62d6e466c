// Package protocol defines the bus subjects and payloads external UI
// collaborators consume.
package protocol

import "time"

const (
	SubjectSpeechStatus = "news.speech.status"
	SubjectSpeechVolume = "news.speech.volume"
	SubjectSpeechConfig = "news.speech.config"
	SubjectSpeechError  = "news.speech.error"
)

// SpeechStatus announces a session state transition.
type SpeechStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// SpeechVolume announces a volume change, already clamped into [0,1].
type SpeechVolume struct {
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// SpeechConfig mirrors the persisted synthesis preferences.
type SpeechConfig struct {
	Engine      string    `json:"engine"`
	Voice       string    `json:"voice"`
	Speed       float64   `json:"speed"`
	Volume      float64   `json:"volume"`
	AutoCleanup bool      `json:"autoCleanup"`
	Timestamp   time.Time `json:"timestamp"`
}

// SpeechError carries a session failure description.
type SpeechError struct {
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}
