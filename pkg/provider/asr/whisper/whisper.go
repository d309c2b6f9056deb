// Package whisper provides [asr.Provider] implementations backed by
// whisper.cpp: a remote HTTP client for the whisper.cpp server and a native
// in-process engine using the Go bindings.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/termscribe/termscribe/pkg/provider/asr"
)

// Client is an [asr.Provider] that talks to a whisper.cpp server over HTTP.
// The server accepts multipart uploads on /inference and handles arbitrary
// container formats itself, so no local audio conversion is needed.
type Client struct {
	serverURL string
	model     string
	language  string
	http      *http.Client
}

var _ asr.Provider = (*Client)(nil)

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model name passed to the server. Empty means the
// server's default model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithLanguage sets the decoding language (e.g. "ru"). Empty means
// auto-detect.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a whisper.cpp server client. serverURL must be the base URL of
// a running whisper.cpp server (e.g. "http://localhost:8080").
func New(serverURL string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: server URL is required")
	}
	c := &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		http:      &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name implements [asr.Provider].
func (c *Client) Name() string { return "whisper" }

// Requirements implements [asr.Provider]. The whisper.cpp server decodes
// uploaded files itself, so any container format is accepted.
func (c *Client) Requirements() asr.Requirements {
	return asr.Requirements{}
}

// inferenceResponse is the JSON body of a successful /inference call.
type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Transcribe implements [asr.Provider]. It uploads the audio file to the
// server's /inference endpoint. hint.Prompt is forwarded as the initial
// decoding prompt; hint.Hotwords are ignored (whisper has no word-level bias
// mechanism).
func (c *Client) Transcribe(ctx context.Context, audioPath string, hint asr.Hint) (*asr.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("whisper: build request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("whisper: read audio: %w", err)
	}

	fields := map[string]string{
		"response_format": "json",
	}
	if c.model != "" {
		fields["model"] = c.model
	}
	if c.language != "" {
		fields["language"] = c.language
	}
	if hint.Prompt != "" {
		fields["prompt"] = hint.Prompt
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("whisper: build request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/inference", &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: call server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("whisper: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper: server returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var out inferenceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("whisper: decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("whisper: server error: %s", out.Error)
	}

	return &asr.Transcript{
		Text:     strings.TrimSpace(out.Text),
		Language: c.language,
	}, nil
}
