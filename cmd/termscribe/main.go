// Command termscribe transcribes a directory of meeting recordings and
// applies terminology correction to the transcripts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/termscribe/termscribe/internal/archive"
	"github.com/termscribe/termscribe/internal/config"
	"github.com/termscribe/termscribe/internal/observe"
	"github.com/termscribe/termscribe/internal/pipeline"
	"github.com/termscribe/termscribe/internal/terms"
	"github.com/termscribe/termscribe/pkg/provider/asr"
	"github.com/termscribe/termscribe/pkg/provider/asr/vosk"
	"github.com/termscribe/termscribe/pkg/provider/asr/whisper"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "termscribe: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "termscribe: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("termscribe starting",
		"version", version,
		"config", *configPath,
		"engine", cfg.Engine,
		"input_dir", cfg.InputDir,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	shutdownObserve, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownObserve(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	var metricsSrv *http.Server
	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			slog.Info("metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	// ── Terminology dictionaries ──────────────────────────────────────────────
	store, err := terms.LoadDir(cfg.DictsDir)
	if err != nil {
		slog.Error("failed to load dictionaries", "dir", cfg.DictsDir, "err", err)
		return 1
	}
	slog.Info("dictionaries loaded",
		"contexts", store.Names(),
		"rules", store.TotalRules(),
	)

	// ── ASR engine ────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinEngines(reg)

	provider, err := reg.Create(cfg)
	if err != nil {
		slog.Error("failed to create engine", "engine", cfg.Engine, "err", err)
		return 1
	}
	if c, ok := provider.(interface{ Close() error }); ok {
		defer func() {
			if err := c.Close(); err != nil {
				slog.Warn("engine close error", "err", err)
			}
		}()
	}

	// ── Archive (optional) ────────────────────────────────────────────────────
	var opts []pipeline.Option
	if cfg.Archive.PostgresDSN != "" {
		arch, err := archive.NewStore(ctx, cfg.Archive.PostgresDSN)
		if err != nil {
			slog.Error("failed to connect transcript archive", "err", err)
			return 1
		}
		defer arch.Close()
		opts = append(opts, pipeline.WithArchive(arch))
		slog.Info("transcript archive connected")
	}

	// ── Run the batch ─────────────────────────────────────────────────────────
	p, err := pipeline.New(cfg, provider, store, opts...)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}

	report, err := p.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	if report != nil && report.Failed > 0 {
		return 1
	}
	return 0
}

// registerBuiltinEngines wires the ASR engine factories that ship with
// termscribe into reg.
func registerBuiltinEngines(reg *config.Registry) {
	reg.Register(config.EngineWhisper, func(cfg *config.Config) (asr.Provider, error) {
		var opts []whisper.Option
		if cfg.Whisper.Model != "" {
			opts = append(opts, whisper.WithModel(cfg.Whisper.Model))
		}
		if cfg.Language != "" {
			opts = append(opts, whisper.WithLanguage(cfg.Language))
		}
		return whisper.New(cfg.Whisper.ServerURL, opts...)
	})

	reg.Register(config.EngineWhisperNative, func(cfg *config.Config) (asr.Provider, error) {
		var opts []whisper.NativeOption
		if cfg.Language != "" {
			opts = append(opts, whisper.WithNativeLanguage(cfg.Language))
		}
		return whisper.NewNative(cfg.Whisper.ModelPath, opts...)
	})

	reg.Register(config.EngineVosk, func(cfg *config.Config) (asr.Provider, error) {
		return vosk.New(cfg.Vosk.ServerURL, vosk.WithSampleRate(cfg.SampleRate))
	})
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
