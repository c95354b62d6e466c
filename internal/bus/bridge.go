package bus

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/KamoLovesCode/news/internal/protocol"
	"github.com/KamoLovesCode/news/internal/speech"
)

// Bridge republishes the speech manager's in-process events on NATS so
// out-of-process UI collaborators can observe sessions. The in-process bus
// stays the source of truth; bridge publish failures are logged only.
type Bridge struct {
	client *Client
	log    *slog.Logger
	unsubs []func()
}

func NewBridge(client *Client, events *speech.Events, log *slog.Logger) *Bridge {
	b := &Bridge{
		client: client,
		log:    log.With(slog.String("component", "speech-bridge")),
	}

	b.unsubs = append(b.unsubs,
		events.StatusChanged.Subscribe(func(status speech.Status) {
			b.publish(protocol.SubjectSpeechStatus, protocol.SpeechStatus{
				Status:    status.String(),
				Timestamp: time.Now().UTC(),
			})
		}),
		events.VolumeChanged.Subscribe(func(volume float64) {
			b.publish(protocol.SubjectSpeechVolume, protocol.SpeechVolume{
				Volume:    volume,
				Timestamp: time.Now().UTC(),
			})
		}),
		events.ConfigChanged.Subscribe(func(cfg speech.SynthesisConfig) {
			b.publish(protocol.SubjectSpeechConfig, protocol.SpeechConfig{
				Engine:      cfg.Engine.String(),
				Voice:       cfg.Voice,
				Speed:       cfg.Speed,
				Volume:      cfg.Volume,
				AutoCleanup: cfg.AutoCleanup,
				Timestamp:   time.Now().UTC(),
			})
		}),
		events.Error.Subscribe(func(err error) {
			b.publish(protocol.SubjectSpeechError, protocol.SpeechError{
				Detail:    err.Error(),
				Timestamp: time.Now().UTC(),
			})
		}),
	)
	return b
}

func (b *Bridge) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Warn("failed to marshal bus payload", slog.String("subject", subject), slog.String("error", err.Error()))
		return
	}
	if err := b.client.Conn().Publish(subject, data); err != nil {
		b.log.Warn("failed to publish bus payload", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

// Close detaches the bridge from the in-process topics.
func (b *Bridge) Close() {
	for _, unsub := range b.unsubs {
		unsub()
	}
}
