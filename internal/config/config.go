// Package config provides the configuration schema, loader, and engine
// registry for the termscribe transcription pipeline.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// EngineName selects the ASR backend.
type EngineName string

const (
	// EngineWhisper talks to a running whisper.cpp server over HTTP.
	EngineWhisper EngineName = "whisper"

	// EngineWhisperNative runs whisper.cpp in-process via the CGO bindings.
	EngineWhisperNative EngineName = "whisper-native"

	// EngineVosk streams audio to a vosk-server over websocket.
	EngineVosk EngineName = "vosk"
)

// IsValid reports whether e is a recognised engine name.
func (e EngineName) IsValid() bool {
	switch e {
	case EngineWhisper, EngineWhisperNative, EngineVosk:
		return true
	}
	return false
}

// CorrectionMode selects which rule priority tiers the correction pass
// applies automatically.
type CorrectionMode string

const (
	// CorrectionOff disables the correction pass entirely.
	CorrectionOff CorrectionMode = "off"

	// CorrectionCritical applies only priority-1 rules.
	CorrectionCritical CorrectionMode = "critical"

	// CorrectionStandard applies priority 1 and 2. Priority-3 rules are
	// reported but never rewritten.
	CorrectionStandard CorrectionMode = "standard"

	// CorrectionAll applies every rule regardless of priority.
	CorrectionAll CorrectionMode = "all"
)

// IsValid reports whether m is a recognised correction mode.
func (m CorrectionMode) IsValid() bool {
	switch m {
	case CorrectionOff, CorrectionCritical, CorrectionStandard, CorrectionAll:
		return true
	}
	return false
}

// Priorities returns the priority tiers the mode applies, or nil when every
// tier applies (or the mode is off — callers check for that first).
func (m CorrectionMode) Priorities() []int {
	switch m {
	case CorrectionCritical:
		return []int{1}
	case CorrectionStandard:
		return []int{1, 2}
	default:
		return nil
	}
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	// Engine selects the ASR backend.
	Engine EngineName `yaml:"engine"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// InputDir is scanned for audio files to transcribe.
	InputDir string `yaml:"input_dir"`

	// OutputDir receives one markdown transcript per processed file.
	OutputDir string `yaml:"output_dir"`

	// ProcessedDir receives source files after successful processing.
	ProcessedDir string `yaml:"processed_dir"`

	// TempDir holds intermediate WAV conversions. Cleaned per file.
	TempDir string `yaml:"temp_dir"`

	// DictsDir holds the terminology dictionary JSON files.
	DictsDir string `yaml:"dicts_dir"`

	// Contexts lists the terminology contexts to apply, in order. Order is
	// precedence: when contexts define colliding patterns, the last one wins.
	Contexts []string `yaml:"contexts"`

	// CorrectionMode selects which priority tiers apply. Default: standard.
	CorrectionMode CorrectionMode `yaml:"correction_mode"`

	// Language is the recognition language (BCP-47 primary subtag, e.g.
	// "ru"). Empty lets engines that support it auto-detect.
	Language string `yaml:"language"`

	// SampleRate is the target sample rate for WAV conversion. Default: 16000.
	SampleRate int `yaml:"sample_rate"`

	// SupportedFormats lists accepted file extensions including the dot.
	SupportedFormats []string `yaml:"supported_formats"`

	// Workers bounds how many files are processed concurrently. Default: 2.
	Workers int `yaml:"workers"`

	// Suggest enables the phonetic rule-suggestion report.
	Suggest bool `yaml:"suggest"`

	// FFmpegPath overrides the ffmpeg binary used for conversion.
	// Default: "ffmpeg" (resolved via PATH).
	FFmpegPath string `yaml:"ffmpeg_path"`

	Whisper WhisperConfig `yaml:"whisper"`
	Vosk    VoskConfig    `yaml:"vosk"`
	Metrics MetricsConfig `yaml:"metrics"`
	Archive ArchiveConfig `yaml:"archive"`
}

// WhisperConfig holds settings for both whisper engines.
type WhisperConfig struct {
	// ServerURL is the whisper.cpp server address (engine "whisper").
	ServerURL string `yaml:"server_url"`

	// ModelPath is the GGML model file path (engine "whisper-native").
	ModelPath string `yaml:"model_path"`

	// Model is an optional model identifier forwarded to the server.
	Model string `yaml:"model"`
}

// VoskConfig holds settings for the vosk engine.
type VoskConfig struct {
	// ServerURL is the vosk-server websocket address (e.g. "ws://localhost:2700").
	ServerURL string `yaml:"server_url"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// ListenAddr is the address /metrics is served on (e.g. ":9090").
	// Empty disables the endpoint.
	ListenAddr string `yaml:"listen_addr"`
}

// ArchiveConfig configures the optional PostgreSQL transcript archive.
type ArchiveConfig struct {
	// PostgresDSN is the connection string. Empty disables the archive.
	PostgresDSN string `yaml:"postgres_dsn"`
}
