package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [LoadFromReader] before validation.
const (
	DefaultSampleRate = 16000
	DefaultWorkers    = 2
)

// DefaultSupportedFormats lists the audio file extensions accepted when the
// config does not override them.
var DefaultSupportedFormats = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero-valued optional fields.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.CorrectionMode == "" {
		cfg.CorrectionMode = CorrectionStandard
	}
	if cfg.InputDir == "" {
		cfg.InputDir = ".data/input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = ".data/output"
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = ".data/processed"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = ".data/temp"
	}
	if cfg.DictsDir == "" {
		cfg.DictsDir = "dicts"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if len(cfg.SupportedFormats) == 0 {
		cfg.SupportedFormats = append([]string(nil), DefaultSupportedFormats...)
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Engine == "" {
		errs = append(errs, errors.New("engine is required; valid values: whisper, whisper-native, vosk"))
	} else if !cfg.Engine.IsValid() {
		errs = append(errs, fmt.Errorf("engine %q is invalid; valid values: whisper, whisper-native, vosk", cfg.Engine))
	}

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if !cfg.CorrectionMode.IsValid() {
		errs = append(errs, fmt.Errorf("correction_mode %q is invalid; valid values: off, critical, standard, all", cfg.CorrectionMode))
	}

	if cfg.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate %d must be positive", cfg.SampleRate))
	}
	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers %d must be positive", cfg.Workers))
	}

	for i, ext := range cfg.SupportedFormats {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("supported_formats[%d] %q must start with a dot", i, ext))
		}
	}

	// Engine-specific requirements.
	switch cfg.Engine {
	case EngineWhisper:
		if cfg.Whisper.ServerURL == "" {
			errs = append(errs, errors.New("whisper.server_url is required for engine \"whisper\""))
		}
	case EngineWhisperNative:
		if cfg.Whisper.ModelPath == "" {
			errs = append(errs, errors.New("whisper.model_path is required for engine \"whisper-native\""))
		}
	case EngineVosk:
		if cfg.Vosk.ServerURL == "" {
			errs = append(errs, errors.New("vosk.server_url is required for engine \"vosk\""))
		}
	}

	if len(cfg.Contexts) == 0 && cfg.CorrectionMode != CorrectionOff {
		slog.Warn("no terminology contexts configured; transcripts will not be corrected")
	}
	seen := make(map[string]int, len(cfg.Contexts))
	for i, name := range cfg.Contexts {
		if name == "" {
			errs = append(errs, fmt.Errorf("contexts[%d] must not be empty", i))
			continue
		}
		if prev, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("contexts[%d] %q is a duplicate of contexts[%d]", i, name, prev))
		}
		seen[name] = i
	}

	return errors.Join(errs...)
}
