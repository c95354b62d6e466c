package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Backend is the remote synthesis server boundary.
type Backend interface {
	// Health reports whether the server is reachable. Any failure yields
	// false, never an error.
	Health(ctx context.Context) bool
	Voices(ctx context.Context) ([]Voice, error)
	Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisResult, error)
	// DeleteAudio removes a rendered asset. Best effort.
	DeleteAudio(ctx context.Context, fileID string) error
}

// SynthesisRequest is the body of POST /synthesize.
type SynthesisRequest struct {
	Text   string  `json:"text"`
	Voice  string  `json:"voice,omitempty"`
	Speed  float64 `json:"speed,omitempty"`
	Engine string  `json:"engine"`
}

// SynthesisResult identifies a rendered audio asset.
type SynthesisResult struct {
	AudioURL string `json:"audio_url"`
	FileID   string `json:"file_id"`
}

// Client talks to the synthesis server over HTTP.
type Client struct {
	baseURL      string
	http         *http.Client
	probeTimeout time.Duration
}

func NewClient(baseURL string, probeTimeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{},
		probeTimeout: probeTimeout,
	}
}

func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 300
}

func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("voices request returned status %s", resp.Status)
	}
	var voices []Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	return voices, nil
}

func (c *Client) Synthesize(ctx context.Context, sreq SynthesisRequest) (SynthesisResult, error) {
	body, err := json.Marshal(sreq)
	if err != nil {
		return SynthesisResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return SynthesisResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return SynthesisResult{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return SynthesisResult{}, fmt.Errorf("%w: synthesis returned status %s", ErrBackendUnavailable, resp.Status)
	}
	var result SynthesisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return SynthesisResult{}, fmt.Errorf("decode synthesis response: %w", err)
	}
	// The server returns a relative audio path.
	if strings.HasPrefix(result.AudioURL, "/") {
		result.AudioURL = c.baseURL + result.AudioURL
	}
	return result, nil
}

func (c *Client) DeleteAudio(ctx context.Context, fileID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/audio/"+fileID, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("delete audio returned status %s", resp.Status)
	}
	return nil
}
