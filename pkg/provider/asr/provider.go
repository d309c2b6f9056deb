// Package asr defines the Provider interface for batch speech-recognition
// backends.
//
// An ASR provider wraps a transcription engine (a whisper.cpp server, the
// whisper.cpp native bindings, or a Vosk server) and exposes a uniform batch
// interface: hand it the path of an audio file plus an optional recognition
// [Hint], get back the raw transcript. Terminology correction is deliberately
// NOT a provider concern — providers emit text exactly as the engine decoded
// it, and the correction engine rewrites it afterwards.
//
// Implementations must be safe for concurrent use. The pipeline transcribes
// several files in parallel against a single shared Provider.
package asr

import "context"

// Hint carries the decoding-time vocabulary bias handed to an engine before
// transcription. Engines consume whichever field they support: whisper-style
// engines take Prompt as an initial decoding prompt, Kaldi/Vosk-style engines
// take Hotwords as a word-level bias list. Providers ignore the field they
// cannot use.
type Hint struct {
	// Prompt is a free-text priming string listing domain vocabulary.
	Prompt string

	// Hotwords is an ordered list of bias terms.
	Hotwords []string
}

// Empty reports whether the hint carries no bias data at all.
func (h Hint) Empty() bool {
	return h.Prompt == "" && len(h.Hotwords) == 0
}

// Requirements describes the audio input constraints of a provider. The
// pipeline consults it to decide whether a source file must be converted
// before transcription.
type Requirements struct {
	// WAV is true when the provider only accepts 16-bit signed little-endian
	// mono PCM in a RIFF/WAV container. False means the provider handles
	// arbitrary container formats itself.
	WAV bool

	// SampleRate is the required sample rate in Hz when WAV is true. Zero
	// means any rate is accepted.
	SampleRate int
}

// Provider is the abstraction over any batch transcription backend.
//
// Implementations must be safe for concurrent use; Transcribe may be called
// from multiple goroutines simultaneously.
type Provider interface {
	// Name returns the provider's short identifier (e.g., "whisper", "vosk").
	// Used in logs, metrics attributes, and output metadata.
	Name() string

	// Requirements reports the audio input constraints of this provider.
	Requirements() Requirements

	// Transcribe decodes the audio file at audioPath and returns the raw
	// transcript. hint is best-effort: a provider that supports neither
	// prompts nor hotwords silently ignores it.
	//
	// Returns an error if the file cannot be read, the engine is unreachable,
	// or ctx is cancelled before decoding completes.
	Transcribe(ctx context.Context, audioPath string, hint Hint) (*Transcript, error)
}
