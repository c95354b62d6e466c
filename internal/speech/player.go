package speech

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"

	"github.com/mattn/go-shellwords"
)

// Handle controls a live utterance or audio playback. A handle is owned by
// exactly one session and never shared.
type Handle interface {
	Pause() error
	Resume() error
	// Stop halts output immediately. The done callback is not invoked for a
	// stopped handle.
	Stop() error
	// SetVolume applies a live volume change where the underlying output
	// supports it; otherwise it is a no-op.
	SetVolume(v float64) error
}

// Player turns an audio source (file path or URL) into audible output.
type Player interface {
	// Play starts playback and returns once output has begun. done fires
	// exactly once when playback ends on its own, with a nil error on
	// natural completion.
	Play(ctx context.Context, src string, volume float64, done func(error)) (Handle, error)
}

// execPlayer shells out to a media player command such as mpv or ffplay.
type execPlayer struct {
	cmd []string
}

// NewExecPlayer parses the player command line once up front.
func NewExecPlayer(command string) (Player, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse player command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("player command empty")
	}
	return &execPlayer{cmd: args}, nil
}

func (p *execPlayer) Play(ctx context.Context, src string, volume float64, done func(error)) (Handle, error) {
	args := append([]string{}, p.cmd[1:]...)
	args = append(args, src)
	cmd := exec.CommandContext(ctx, p.cmd[0], args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start player: %w", err)
	}
	return newExecHandle(cmd, done), nil
}

// execHandle wraps a running process. Pause and resume map onto job control
// signals; stop kills the process and suppresses the done callback.
type execHandle struct {
	cmd     *exec.Cmd
	mu      sync.Mutex
	stopped bool
}

func newExecHandle(cmd *exec.Cmd, done func(error)) *execHandle {
	h := &execHandle{cmd: cmd}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		stopped := h.stopped
		h.mu.Unlock()
		if stopped {
			return
		}
		done(err)
	}()
	return h
}

func (h *execHandle) Pause() error {
	return h.cmd.Process.Signal(syscall.SIGSTOP)
}

func (h *execHandle) Resume() error {
	return h.cmd.Process.Signal(syscall.SIGCONT)
}

func (h *execHandle) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.mu.Unlock()
	// SIGCONT first so a paused process can act on the kill.
	_ = h.cmd.Process.Signal(syscall.SIGCONT)
	return h.cmd.Process.Kill()
}

func (h *execHandle) SetVolume(float64) error {
	// Command-line players take their volume at launch.
	return nil
}
