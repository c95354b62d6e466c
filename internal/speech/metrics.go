package speech

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts session outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	sessions       metric.Int64Counter
	fallbacks      metric.Int64Counter
	playbackErrors metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/KamoLovesCode/news/internal/speech")

	sessions, err := meter.Int64Counter("speech.sessions.started",
		metric.WithDescription("Speech sessions started, by engine"))
	if err != nil {
		return nil, err
	}
	fallbacks, err := meter.Int64Counter("speech.fallbacks",
		metric.WithDescription("Remote requests degraded to the local engine"))
	if err != nil {
		return nil, err
	}
	playbackErrors, err := meter.Int64Counter("speech.playback.errors",
		metric.WithDescription("Sessions that ended in a playback failure"))
	if err != nil {
		return nil, err
	}

	return &Metrics{sessions: sessions, fallbacks: fallbacks, playbackErrors: playbackErrors}, nil
}

func (m *Metrics) sessionStarted(engine Engine) {
	if m == nil {
		return
	}
	m.sessions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("engine", engine.String())))
}

func (m *Metrics) fallbackTaken() {
	if m == nil {
		return
	}
	m.fallbacks.Add(context.Background(), 1)
}

func (m *Metrics) playbackError() {
	if m == nil {
		return
	}
	m.playbackErrors.Add(context.Background(), 1)
}
