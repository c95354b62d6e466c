package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
)

// LocalEngine is the on-device speech capability. It may be entirely absent
// on a platform; Available must be cheap and synchronous.
type LocalEngine interface {
	Available() bool
	// Voices enumerates device voices. May be empty, never fails.
	Voices() []Voice
	// Speak starts an utterance and returns once output has begun. done
	// fires when the utterance ends on its own.
	Speak(ctx context.Context, text string, voice string, speed, volume float64, done func(error)) (Handle, error)
}

// espeak-ng speaks at 175 words per minute by default; speed is a multiplier
// on that.
const baseWordsPerMinute = 175

// execLocalEngine drives an espeak-style command.
type execLocalEngine struct {
	cmd []string
}

func NewExecLocalEngine(command string) (LocalEngine, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse local speech command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("local speech command empty")
	}
	return &execLocalEngine{cmd: args}, nil
}

func (e *execLocalEngine) Available() bool {
	_, err := exec.LookPath(e.cmd[0])
	return err == nil
}

func (e *execLocalEngine) Voices() []Voice {
	out, err := exec.Command(e.cmd[0], "--voices").Output()
	if err != nil {
		return nil
	}
	return parseVoiceTable(out)
}

// parseVoiceTable reads the espeak-ng voice listing. Columns are
// Pty Language Age/Gender VoiceName File; the first line is a header.
func parseVoiceTable(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		v := Voice{
			ID:   strconv.Itoa(len(voices)),
			Name: fields[3],
		}
		if parts := strings.Split(fields[2], "/"); len(parts) == 2 {
			switch parts[1] {
			case "M":
				v.Gender = "male"
			case "F":
				v.Gender = "female"
			}
			if parts[0] != "--" {
				v.Age = parts[0]
			}
		}
		voices = append(voices, v)
	}
	return voices
}

func (e *execLocalEngine) Speak(ctx context.Context, text string, voice string, speed, volume float64, done func(error)) (Handle, error) {
	if !e.Available() {
		return nil, ErrUnsupportedEngine
	}

	args := append([]string{}, e.cmd[1:]...)
	args = append(args, "-s", strconv.Itoa(int(baseWordsPerMinute*speed)))
	args = append(args, "-a", strconv.Itoa(amplitude(volume)))
	if name := e.voiceName(voice); name != "" {
		args = append(args, "-v", name)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, e.cmd[0], args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start local speech: %w", err)
	}
	return newExecHandle(cmd, done), nil
}

// voiceName resolves a stored voice identifier (an index into the voice
// listing) to the engine's voice name. "default" and unknown identifiers
// leave the engine's own default in place.
func (e *execLocalEngine) voiceName(voice string) string {
	if voice == "" || voice == "default" {
		return ""
	}
	idx, err := strconv.Atoi(voice)
	if err != nil {
		return voice
	}
	voices := e.Voices()
	if idx < 0 || idx >= len(voices) {
		return ""
	}
	return voices[idx].Name
}

// amplitude maps volume in [0,1] onto espeak's 0..200 amplitude scale,
// keeping 100 (the engine default) at volume 0.5.
func amplitude(volume float64) int {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	return int(volume * 200)
}
