// Package vosk provides an [asr.Provider] backed by a vosk-server instance
// over its WebSocket protocol.
//
// The vosk-server protocol is line-oriented JSON over a WebSocket: the client
// first sends a configuration message, then streams raw PCM chunks as binary
// frames, then sends {"eof": 1}. The server answers each chunk with either a
// partial result or an accepted utterance; the final message after EOF holds
// the last utterance. Hotword bias is passed via the config message's
// "phrase_list" field, which Kaldi-based recognizers use to re-weight the
// grammar.
package vosk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/termscribe/termscribe/pkg/provider/asr"
)

const (
	defaultSampleRate = 16000

	// chunkFrames is the number of PCM frames sent per binary message, the
	// chunk size the vosk-server examples use.
	chunkFrames = 4000
)

// Client is an [asr.Provider] that streams audio to a vosk-server over a
// WebSocket. Each Transcribe call dials its own connection, so a single
// Client is safe for concurrent use.
type Client struct {
	serverURL  string
	sampleRate int
}

var _ asr.Provider = (*Client)(nil)

// Option is a functional option for configuring a [Client].
type Option func(*Client)

// WithSampleRate sets the sample rate announced to the server. Defaults to
// 16000 Hz.
func WithSampleRate(rate int) Option {
	return func(c *Client) { c.sampleRate = rate }
}

// New creates a vosk-server client. serverURL must be the WebSocket URL of a
// running vosk-server (e.g. "ws://localhost:2700").
func New(serverURL string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("vosk: server URL is required")
	}
	c := &Client{
		serverURL:  serverURL,
		sampleRate: defaultSampleRate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name implements [asr.Provider].
func (c *Client) Name() string { return "vosk" }

// Requirements implements [asr.Provider]. The server consumes raw PCM, so
// input must arrive as WAV at the announced sample rate.
func (c *Client) Requirements() asr.Requirements {
	return asr.Requirements{WAV: true, SampleRate: c.sampleRate}
}

// voskConfig is the first message of a recognition session.
type voskConfig struct {
	Config struct {
		SampleRate int      `json:"sample_rate"`
		PhraseList []string `json:"phrase_list,omitempty"`
		Words      bool     `json:"words"`
	} `json:"config"`
}

// voskResult is a server response. Partial results carry only "partial";
// accepted utterances carry "text".
type voskResult struct {
	Text    string  `json:"text"`
	Partial *string `json:"partial"`
}

// Transcribe implements [asr.Provider]. hint.Hotwords are forwarded as the
// session's phrase list; hint.Prompt is ignored (Kaldi has no free-text
// priming).
func (c *Client) Transcribe(ctx context.Context, audioPath string, hint asr.Hint) (*asr.Transcript, error) {
	raw, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("vosk: read audio: %w", err)
	}
	pcm, info, err := asr.DecodeWAV(raw)
	if err != nil {
		return nil, fmt.Errorf("vosk: decode %q: %w", audioPath, err)
	}
	if info.Channels != 1 {
		return nil, fmt.Errorf("vosk: %q has %d channels, need mono", audioPath, info.Channels)
	}
	if info.SampleRate != c.sampleRate {
		return nil, fmt.Errorf("vosk: %q has sample rate %d Hz, need %d Hz", audioPath, info.SampleRate, c.sampleRate)
	}

	conn, _, err := websocket.Dial(ctx, c.serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("vosk: dial %s: %w", c.serverURL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(1 << 22)

	cfg := voskConfig{}
	cfg.Config.SampleRate = info.SampleRate
	cfg.Config.PhraseList = hint.Hotwords
	cfgMsg, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("vosk: encode config: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, cfgMsg); err != nil {
		return nil, fmt.Errorf("vosk: send config: %w", err)
	}

	var texts []string
	collect := func(msg []byte) error {
		var res voskResult
		if err := json.Unmarshal(msg, &res); err != nil {
			return fmt.Errorf("vosk: decode result: %w", err)
		}
		if res.Partial == nil && res.Text != "" {
			texts = append(texts, res.Text)
		}
		return nil
	}

	// The server answers every chunk, so read in lockstep with writes to
	// keep the connection's flow control happy.
	chunkBytes := chunkFrames * 2
	for off := 0; off < len(pcm); off += chunkBytes {
		end := min(off+chunkBytes, len(pcm))
		if err := conn.Write(ctx, websocket.MessageBinary, pcm[off:end]); err != nil {
			return nil, fmt.Errorf("vosk: send audio: %w", err)
		}
		_, msg, err := conn.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("vosk: read result: %w", err)
		}
		if err := collect(msg); err != nil {
			return nil, err
		}
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"eof" : 1}`)); err != nil {
		return nil, fmt.Errorf("vosk: send eof: %w", err)
	}
	_, msg, err := conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("vosk: read final result: %w", err)
	}
	if err := collect(msg); err != nil {
		return nil, err
	}

	frames := len(pcm) / 2
	return &asr.Transcript{
		Text:     strings.TrimSpace(strings.Join(texts, " ")),
		Duration: time.Duration(frames) * time.Second / time.Duration(info.SampleRate),
	}, nil
}
