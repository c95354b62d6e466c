package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// session is one end-to-end attempt to speak a text. At most one non-terminal
// session exists at any time, owned exclusively by the Manager.
type session struct {
	id     string
	engine Engine
	fileID string // remote asset handle, empty for local sessions
	handle Handle
}

// Options configures a Manager.
type Options struct {
	Backend Backend
	Local   LocalEngine
	Player  Player
	Store   ConfigStore
	Events  *Events
	Logger  *slog.Logger
	Metrics *Metrics
	// Defaults seeds the synthesis config when the store is empty or broken.
	Defaults SynthesisConfig
	// SynthesizeTimeout bounds the remote synthesis request.
	SynthesizeTimeout time.Duration
	// CleanupTimeout bounds the detached remote asset deletion.
	CleanupTimeout time.Duration
}

// Manager owns the current speech session: it selects a strategy, drives the
// status state machine, broadcasts changes on Events, and releases session
// resources however playback ends.
//
// All operations are serialized; a Speak call fully tears down the previous
// session before starting the next one.
type Manager struct {
	mu      sync.Mutex
	cfg     SynthesisConfig
	status  Status
	current *session

	backend   Backend
	local     LocalEngine
	player    Player
	store     ConfigStore
	events    *Events
	log       *slog.Logger
	metrics   *Metrics
	synthTO   time.Duration
	cleanupTO time.Duration
	wg        sync.WaitGroup
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		status:    StatusIdle,
		backend:   opts.Backend,
		local:     opts.Local,
		player:    opts.Player,
		store:     opts.Store,
		events:    opts.Events,
		log:       opts.Logger.With(slog.String("component", "speech-manager")),
		metrics:   opts.Metrics,
		synthTO:   opts.SynthesizeTimeout,
		cleanupTO: opts.CleanupTimeout,
	}
	if m.events == nil {
		m.events = &Events{}
	}
	if m.synthTO <= 0 {
		m.synthTO = 30 * time.Second
	}
	if m.cleanupTO <= 0 {
		m.cleanupTO = 5 * time.Second
	}

	m.cfg = opts.Defaults
	if m.store != nil {
		stored, ok, err := m.store.Load()
		switch {
		case err != nil:
			m.log.Warn("failed to load synthesis config, using defaults", slogError(err))
		case ok:
			m.cfg = stored
		}
	}
	m.cfg.Volume = clampVolume(m.cfg.Volume)
	return m
}

// Events exposes the manager's broadcast topics.
func (m *Manager) Events() *Events { return m.events }

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// GetConfig returns a copy of the effective synthesis config.
func (m *Manager) GetConfig() SynthesisConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Speak synthesizes text and starts playback. It returns once output has
// begun; completion is observed through the StatusChanged topic reaching
// StatusIdle. Any previous session is stopped and cleaned up first.
//
// Empty or whitespace-only text is a no-op: no state change, no events.
func (m *Manager) Speak(ctx context.Context, text string, overrides *Request) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Drive any prior session to idle first, exactly as Stop would.
	m.stopLocked()
	m.setStatusLocked(StatusIdle)

	engine := m.cfg.Engine
	voice := m.cfg.Voice
	speed := m.cfg.Speed
	if overrides != nil {
		if overrides.Engine != nil {
			engine = *overrides.Engine
		}
		if overrides.Voice != "" {
			voice = overrides.Voice
		}
		if overrides.Speed != 0 {
			speed = overrides.Speed
		}
	}

	s := &session{id: uuid.NewString(), engine: engine}
	m.current = s
	m.setStatusLocked(StatusLoading)

	if engine.Remote() && !m.backend.Health(ctx) {
		m.log.Info("synthesis server unreachable, falling back to local engine",
			slog.String("session", s.id), slog.String("requested", engine.String()))
		m.metrics.fallbackTaken()
		engine = EngineLocal
		s.engine = engine
	}

	var err error
	if engine.Remote() {
		err = m.startRemoteLocked(ctx, s, text, voice, speed, engine)
		if err != nil && m.local.Available() {
			m.log.Warn("remote synthesis failed, falling back to local engine",
				slog.String("session", s.id), slogError(err))
			m.metrics.fallbackTaken()
			s.engine = EngineLocal
			err = m.startLocalLocked(ctx, s, text, voice, speed)
		}
	} else {
		err = m.startLocalLocked(ctx, s, text, voice, speed)
	}

	if err != nil {
		m.current = nil
		m.releaseAsset(s)
		m.setStatusLocked(StatusError)
		m.events.Error.Publish(err)
		return err
	}

	m.metrics.sessionStarted(s.engine)
	m.setStatusLocked(StatusPlaying)
	return nil
}

func (m *Manager) startRemoteLocked(ctx context.Context, s *session, text, voice string, speed float64, engine Engine) error {
	synthCtx, cancel := context.WithTimeout(ctx, m.synthTO)
	defer cancel()

	result, err := m.backend.Synthesize(synthCtx, SynthesisRequest{
		Text:   text,
		Voice:  voice,
		Speed:  speed,
		Engine: engine.String(),
	})
	if err != nil {
		return err
	}
	s.fileID = result.FileID

	handle, err := m.player.Play(context.Background(), result.AudioURL, m.cfg.Volume, m.sessionDone(s.id))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackFailure, err)
	}
	s.handle = handle
	return nil
}

func (m *Manager) startLocalLocked(ctx context.Context, s *session, text, voice string, speed float64) error {
	if !m.local.Available() {
		return ErrUnsupportedEngine
	}
	handle, err := m.local.Speak(context.Background(), text, voice, speed, m.cfg.Volume, m.sessionDone(s.id))
	if err != nil {
		if err == ErrUnsupportedEngine {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPlaybackFailure, err)
	}
	s.handle = handle
	return nil
}

// sessionDone binds a completion callback to a session identity. A stale
// callback, arriving after the session was replaced or stopped, is discarded
// without any state transition.
func (m *Manager) sessionDone(id string) func(error) {
	return func(err error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.current == nil || m.current.id != id {
			return
		}
		s := m.current
		m.current = nil
		m.releaseAsset(s)

		if err != nil {
			m.log.Warn("playback failed", slog.String("session", s.id), slogError(err))
			m.metrics.playbackError()
			m.setStatusLocked(StatusError)
			m.events.Error.Publish(fmt.Errorf("%w: %v", ErrPlaybackFailure, err))
			return
		}
		m.setStatusLocked(StatusIdle)
	}
}

// Pause suspends playback. Valid only while playing; a no-op otherwise.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusPlaying || m.current == nil {
		return
	}
	if err := m.current.handle.Pause(); err != nil {
		m.log.Warn("pause failed", slog.String("session", m.current.id), slogError(err))
		return
	}
	m.setStatusLocked(StatusPaused)
}

// Resume continues a paused session. Valid only while paused; a no-op
// otherwise.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusPaused || m.current == nil {
		return
	}
	if err := m.current.handle.Resume(); err != nil {
		m.log.Warn("resume failed", slog.String("session", m.current.id), slogError(err))
		return
	}
	m.setStatusLocked(StatusPlaying)
}

// Stop terminates the current session, if any, and forces the status back to
// idle. Remote asset deletion happens in the background and is never joined.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.setStatusLocked(StatusIdle)
}

func (m *Manager) stopLocked() {
	s := m.current
	if s == nil {
		return
	}
	m.current = nil
	if s.handle != nil {
		if err := s.handle.Stop(); err != nil {
			m.log.Warn("failed to halt playback", slog.String("session", s.id), slogError(err))
		}
	}
	m.releaseAsset(s)
}

// releaseAsset schedules the best-effort deletion of a remote audio asset.
// Failures are logged, never surfaced, and never block a state transition.
func (m *Manager) releaseAsset(s *session) {
	if s.fileID == "" || !m.cfg.AutoCleanup {
		return
	}
	fileID := s.fileID
	sessionID := s.id
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.cleanupTO)
		defer cancel()
		if err := m.backend.DeleteAudio(ctx, fileID); err != nil {
			m.log.Warn("failed to delete remote audio asset",
				slog.String("session", sessionID), slog.String("file_id", fileID), slogError(err))
		}
	}()
}

// SetVolume clamps v into [0,1], persists it, applies it to the live session
// and publishes the change.
func (m *Manager) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setVolumeLocked(v)
}

func (m *Manager) setVolumeLocked(v float64) {
	m.cfg.Volume = clampVolume(v)
	m.saveConfigLocked()
	if m.current != nil && m.current.handle != nil {
		if err := m.current.handle.SetVolume(m.cfg.Volume); err != nil {
			m.log.Warn("failed to apply live volume", slogError(err))
		}
	}
	m.events.VolumeChanged.Publish(m.cfg.Volume)
}

// UpdateConfig merges a partial update into the stored config and persists
// it. A running session keeps its settings; only future Speak calls pick up
// the change. Volume is the exception and applies immediately.
func (m *Manager) UpdateConfig(update ConfigUpdate) SynthesisConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	if update.Engine != nil {
		m.cfg.Engine = *update.Engine
	}
	if update.Voice != nil {
		m.cfg.Voice = *update.Voice
	}
	if update.Speed != nil {
		m.cfg.Speed = *update.Speed
	}
	if update.AutoCleanup != nil {
		m.cfg.AutoCleanup = *update.AutoCleanup
	}
	if update.Volume != nil {
		m.setVolumeLocked(*update.Volume)
	} else {
		m.saveConfigLocked()
	}
	m.events.ConfigChanged.Publish(m.cfg)
	return m.cfg
}

// saveConfigLocked persists the config. Persistence failures are logged and
// absorbed; the in-memory config stays authoritative for this process.
func (m *Manager) saveConfigLocked() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.cfg); err != nil {
		m.log.Warn("failed to persist synthesis config", slogError(err))
	}
}

// Voices lists available voices, preferring the server catalog and falling
// back to device voices. It never fails; the worst case is an empty list.
func (m *Manager) Voices(ctx context.Context) []Voice {
	voices, err := m.backend.Voices(ctx)
	if err == nil {
		return voices
	}
	m.log.Warn("failed to fetch server voices, using local voices", slogError(err))
	if local := m.local.Voices(); local != nil {
		return local
	}
	return []Voice{}
}

// CheckServerHealth probes the synthesis server once, within a bounded
// timeout. Any failure reads as unreachable.
func (m *Manager) CheckServerHealth(ctx context.Context) bool {
	return m.backend.Health(ctx)
}

// Close stops the current session and waits for detached cleanup to finish.
func (m *Manager) Close() {
	m.Stop()
	m.wg.Wait()
}

// setStatusLocked publishes a transition only when the status actually
// changes, and only after the underlying resources already reflect it.
func (m *Manager) setStatusLocked(status Status) {
	if m.status == status {
		return
	}
	m.status = status
	m.events.StatusChanged.Publish(status)
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
