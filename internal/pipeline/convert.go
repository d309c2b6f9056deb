package pipeline

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Converter transcodes source audio into the mono 16-bit PCM WAV that
// sample-level engines require. It shells out to ffmpeg, which handles every
// container format the pipeline accepts.
type Converter struct {
	ffmpegPath string
}

// NewConverter returns a Converter using the given ffmpeg binary.
// An empty path means "ffmpeg" resolved via PATH.
func NewConverter(ffmpegPath string) *Converter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Converter{ffmpegPath: ffmpegPath}
}

// ToWAV converts src into a mono 16-bit PCM WAV at sampleRate Hz, written to
// dst. Existing dst files are overwritten.
func (c *Converter) ToWAV(ctx context.Context, src, dst string, sampleRate int) error {
	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", src,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		dst,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail != "" {
			return fmt.Errorf("pipeline: ffmpeg convert %q: %w: %s", src, err, detail)
		}
		return fmt.Errorf("pipeline: ffmpeg convert %q: %w", src, err)
	}
	return nil
}
