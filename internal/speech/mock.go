package speech

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mock implementations let the daemon run without a synthesis server, a
// media player, or a speech engine installed. Playback "finishes" after a
// fixed delay.

type MockBackend struct {
	voices []Voice
}

func NewMockBackend() *MockBackend {
	return &MockBackend{voices: []Voice{
		{ID: "0", Name: "Mock Narrator", Gender: "female"},
		{ID: "1", Name: "Mock Reader", Gender: "male"},
	}}
}

func (m *MockBackend) Health(context.Context) bool { return true }

func (m *MockBackend) Voices(context.Context) ([]Voice, error) {
	return append([]Voice(nil), m.voices...), nil
}

func (m *MockBackend) Synthesize(_ context.Context, req SynthesisRequest) (SynthesisResult, error) {
	id := uuid.NewString()
	return SynthesisResult{AudioURL: "mock://audio/" + id, FileID: id}, nil
}

func (m *MockBackend) DeleteAudio(context.Context, string) error { return nil }

// MockPlayer plays nothing and reports completion after Delay.
type MockPlayer struct {
	Delay time.Duration
}

func (p *MockPlayer) Play(_ context.Context, _ string, _ float64, done func(error)) (Handle, error) {
	return newMockHandle(p.Delay, done), nil
}

// MockLocalEngine is an always-available local capability.
type MockLocalEngine struct {
	Delay time.Duration
}

func (e *MockLocalEngine) Available() bool { return true }

func (e *MockLocalEngine) Voices() []Voice {
	return []Voice{{ID: "0", Name: "Mock Device Voice"}}
}

func (e *MockLocalEngine) Speak(_ context.Context, _ string, _ string, _, _ float64, done func(error)) (Handle, error) {
	return newMockHandle(e.Delay, done), nil
}

type mockHandle struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	done    func(error)
	stopped bool
}

func newMockHandle(delay time.Duration, done func(error)) *mockHandle {
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	h := &mockHandle{delay: delay, done: done}
	h.timer = time.AfterFunc(delay, h.finish)
	return h
}

func (h *mockHandle) finish() {
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	if !stopped {
		h.done(nil)
	}
}

func (h *mockHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
	}
	return nil
}

func (h *mockHandle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.timer = time.AfterFunc(h.delay, h.finish)
	}
	return nil
}

func (h *mockHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
	}
	return nil
}

func (h *mockHandle) SetVolume(float64) error { return nil }
