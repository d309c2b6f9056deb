// This file contains the Native provider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/termscribe/termscribe/pkg/provider/asr"
)

// nativeSampleRate is the sample rate whisper.cpp models are trained on.
const nativeSampleRate = 16000

// Native is an [asr.Provider] that runs whisper.cpp inference in-process via
// the Go bindings, eliminating server round-trips entirely. The model is
// loaded once at startup and shared across all transcription calls; each call
// creates its own whisper context because contexts are not thread-safe.
type Native struct {
	model    whisperlib.Model
	language string
}

var _ asr.Provider = (*Native)(nil)

// NativeOption configures a [Native] provider.
type NativeOption func(*Native)

// WithNativeLanguage sets the decoding language (e.g. "ru"). Empty means
// auto-detect.
func WithNativeLanguage(lang string) NativeOption {
	return func(p *Native) { p.language = lang }
}

// NewNative creates a Native provider that loads the whisper.cpp model from
// the given file path. The caller must call Close when the provider is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*Native, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: model path is required")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &Native{model: model}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close releases the whisper model.
func (p *Native) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Name implements [asr.Provider].
func (p *Native) Name() string { return "whisper-native" }

// Requirements implements [asr.Provider]. The bindings take raw float32
// samples, so input must arrive as 16 kHz PCM WAV.
func (p *Native) Requirements() asr.Requirements {
	return asr.Requirements{WAV: true, SampleRate: nativeSampleRate}
}

// Transcribe implements [asr.Provider]. hint.Prompt is forwarded as the
// initial decoding prompt; hint.Hotwords are ignored (whisper has no
// word-level bias mechanism).
func (p *Native) Transcribe(ctx context.Context, audioPath string, hint asr.Hint) (*asr.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: read audio: %w", err)
	}
	pcm, info, err := asr.DecodeWAV(raw)
	if err != nil {
		return nil, fmt.Errorf("whisper: decode %q: %w", audioPath, err)
	}
	if info.SampleRate != nativeSampleRate {
		return nil, fmt.Errorf("whisper: %q has sample rate %d Hz, need %d Hz", audioPath, info.SampleRate, nativeSampleRate)
	}
	samples := asr.PCMToFloat32Mono(pcm, info.Channels)

	// Each context is NOT thread-safe, but the model can be shared across
	// goroutines.
	wctx, err := p.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}

	if p.language != "" {
		if err := wctx.SetLanguage(p.language); err != nil {
			slog.Warn("whisper: failed to set language, using default", "language", p.language, "error", err)
		}
	}
	if hint.Prompt != "" {
		wctx.SetInitialPrompt(hint.Prompt)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	frames := len(pcm) / 2 / max(info.Channels, 1)
	return &asr.Transcript{
		Text:     strings.Join(parts, " "),
		Language: p.language,
		Duration: time.Duration(frames) * time.Second / time.Duration(info.SampleRate),
	}, nil
}
