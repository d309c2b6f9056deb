package asr

import "time"

// Transcript is the raw output of one batch transcription call.
type Transcript struct {
	// Text is the transcribed speech content, exactly as decoded.
	Text string

	// Language is the language the engine decoded in (BCP-47 primary subtag,
	// e.g. "ru"). Empty if the engine does not report it.
	Language string

	// Duration is the audio duration, when the engine reports it.
	Duration time.Duration
}
