// Package pipeline orchestrates the batch transcription run: discover audio
// files, convert them when the engine needs WAV input, transcribe, apply
// terminology correction, and write one markdown transcript per file.
//
// Files are processed concurrently by a bounded worker pool. A failure in one
// file never aborts the batch; it is logged, counted, and the source file is
// left in place for a retry on the next run. Correction failures degrade
// softer still: the transcript is written uncorrected and flagged as a
// fallback.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/termscribe/termscribe/internal/archive"
	"github.com/termscribe/termscribe/internal/config"
	"github.com/termscribe/termscribe/internal/correct"
	"github.com/termscribe/termscribe/internal/observe"
	"github.com/termscribe/termscribe/internal/suggest"
	"github.com/termscribe/termscribe/internal/terms"
	"github.com/termscribe/termscribe/pkg/provider/asr"
)

// Pipeline wires the ASR provider, the terminology store, and the output
// writers into one runnable batch. Construct with [New]; one Pipeline may
// process many batches.
type Pipeline struct {
	cfg       *config.Config
	provider  asr.Provider
	store     *terms.Store
	corrector *correct.Corrector
	scanner   *suggest.Scanner
	archive   *archive.Store
	converter *Converter
	metrics   *observe.Metrics
}

// Option configures a [Pipeline].
type Option func(*Pipeline)

// WithArchive attaches a transcript archive. Every successfully processed
// file is saved to it.
func WithArchive(a *archive.Store) Option {
	return func(p *Pipeline) { p.archive = a }
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a Pipeline. store may hold more contexts than cfg.Contexts
// names; only the named ones are applied, in the configured order.
func New(cfg *config.Config, provider asr.Provider, store *terms.Store, opts ...Option) (*Pipeline, error) {
	// Unknown context names should fail the run before any audio is touched,
	// not on the first file.
	for _, name := range cfg.Contexts {
		if _, err := store.Context(name); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}

	p := &Pipeline{
		cfg:       cfg,
		provider:  provider,
		store:     store,
		corrector: correct.New(store),
		converter: NewConverter(cfg.FFmpegPath),
	}
	if cfg.Suggest {
		p.scanner = suggest.New()
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p, nil
}

// Report summarises one batch run.
type Report struct {
	// Processed counts files that produced a transcript, fallbacks included.
	Processed int

	// Fallbacks counts transcripts written uncorrected after a correction
	// failure.
	Fallbacks int

	// Failed counts files that produced no transcript at all.
	Failed int
}

// Discover returns the processable files in dir: regular files whose
// extension (case-insensitive) is in formats, sorted by name. Subdirectories
// are not descended into.
func Discover(dir string, formats []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read input dir: %w", err)
	}

	accepted := make(map[string]bool, len(formats))
	for _, ext := range formats {
		accepted[strings.ToLower(ext)] = true
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if accepted[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every discoverable input file with cfg.Workers concurrent
// workers and returns the batch report. Per-file failures are logged and
// counted, never propagated; Run itself errors only on discovery failure or
// context cancellation.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	files, err := Discover(p.cfg.InputDir, p.cfg.SupportedFormats)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		slog.Info("no input files found", "dir", p.cfg.InputDir)
		return &Report{}, nil
	}

	for _, dir := range []string{p.cfg.OutputDir, p.cfg.ProcessedDir, p.cfg.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("pipeline: create %q: %w", dir, err)
		}
	}

	slog.Info("starting batch",
		"files", len(files),
		"engine", p.provider.Name(),
		"workers", p.cfg.Workers,
		"contexts", p.cfg.Contexts,
	)

	var (
		mu     sync.Mutex
		report Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fallback, err := p.processFile(gctx, file)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil && errors.Is(err, context.Canceled):
				return err
			case err != nil:
				report.Failed++
				p.metrics.RecordFile(gctx, "failed")
				slog.Error("file failed", "file", file, "error", err)
			case fallback:
				report.Processed++
				report.Fallbacks++
				p.metrics.RecordFile(gctx, "fallback")
			default:
				report.Processed++
				p.metrics.RecordFile(gctx, "ok")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &report, err
	}

	slog.Info("batch finished",
		"processed", report.Processed,
		"fallbacks", report.Fallbacks,
		"failed", report.Failed,
	)
	return &report, nil
}

// processFile runs one file through the full chain. The returned bool is true
// when the transcript was written uncorrected after a correction failure.
func (p *Pipeline) processFile(ctx context.Context, srcPath string) (fallback bool, err error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.processFile")
	defer span.End()
	log := observe.Logger(ctx).With("file", filepath.Base(srcPath))

	p.metrics.ActiveWorkers.Add(ctx, 1)
	defer p.metrics.ActiveWorkers.Add(ctx, -1)

	audioPath := srcPath
	if reqs := p.provider.Requirements(); reqs.WAV {
		rate := reqs.SampleRate
		if rate == 0 {
			rate = p.cfg.SampleRate
		}
		wavPath := filepath.Join(p.cfg.TempDir, strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))+".wav")
		if err := p.converter.ToWAV(ctx, srcPath, wavPath, rate); err != nil {
			return false, err
		}
		defer os.Remove(wavPath)
		audioPath = wavPath
	}

	hint, err := p.buildHint()
	if err != nil {
		return false, err
	}

	start := time.Now()
	transcript, err := p.provider.Transcribe(ctx, audioPath, hint)
	if err != nil {
		return false, fmt.Errorf("transcribe: %w", err)
	}
	p.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("engine", p.provider.Name())))
	log.Debug("transcribed", "chars", len(transcript.Text), "duration", transcript.Duration)

	doc := &outputDoc{
		front: frontMatter{
			Source:      filepath.Base(srcPath),
			ProcessedAt: time.Now().UTC(),
			Engine:      p.provider.Name(),
			Language:    transcript.Language,
			Contexts:    p.cfg.Contexts,
		},
		text: transcript.Text,
	}

	corrected, reviewHits, corrErr := p.correctText(transcript.Text)
	switch {
	case corrErr != nil:
		log.Warn("correction failed, writing uncorrected transcript", "error", corrErr)
		p.metrics.CorrectionFallbacks.Add(ctx, 1)
		doc.front.Fallback = true
		fallback = true
	case p.cfg.CorrectionMode != config.CorrectionOff && len(p.cfg.Contexts) > 0:
		doc.front.Corrected = true
		doc.text = corrected
		doc.review = reviewHits
		p.recordReplacements(ctx, transcript.Text)
	}

	if p.scanner != nil {
		contexts := make([]*terms.Context, 0, len(p.cfg.Contexts))
		for _, name := range p.cfg.Contexts {
			tc, err := p.store.Context(name)
			if err != nil {
				return false, err
			}
			contexts = append(contexts, tc)
		}
		doc.suggestions = p.scanner.Scan(doc.text, contexts)
	}

	outPath, err := writeOutput(p.cfg.OutputDir, srcPath, doc)
	if err != nil {
		return false, err
	}

	processedPath := filepath.Join(p.cfg.ProcessedDir, filepath.Base(srcPath))
	if err := os.Rename(srcPath, processedPath); err != nil {
		return false, fmt.Errorf("move to processed: %w", err)
	}

	if p.archive != nil {
		rec := &archive.Record{
			SourceFile:    filepath.Base(srcPath),
			Engine:        p.provider.Name(),
			Language:      transcript.Language,
			Contexts:      p.cfg.Contexts,
			RawText:       transcript.Text,
			CorrectedText: doc.text,
			Fallback:      fallback,
		}
		if err := p.archive.Save(ctx, rec); err != nil {
			// The transcript is already on disk; losing the archive row is
			// not worth failing the file over.
			log.Warn("archive save failed", "error", err)
		}
	}

	log.Info("file processed", "output", outPath, "fallback", fallback)
	return fallback, nil
}

// correctText applies the configured contexts to text and collects the rule
// hits that were deliberately not applied (the tiers outside the correction
// mode, priority-3 candidates in particular) for the review section.
func (p *Pipeline) correctText(text string) (corrected string, review []correct.Match, err error) {
	if p.cfg.CorrectionMode == config.CorrectionOff || len(p.cfg.Contexts) == 0 {
		return text, nil, nil
	}

	start := time.Now()
	defer func() {
		p.metrics.CorrectionDuration.Record(context.Background(), time.Since(start).Seconds())
	}()

	applied := p.cfg.CorrectionMode.Priorities()
	var opts []correct.ApplyOption
	if applied != nil {
		opts = append(opts, correct.WithPriorities(applied...))
	}

	corrected, err = p.corrector.Apply(text, p.cfg.Contexts, opts...)
	if err != nil {
		return "", nil, err
	}

	if skipped := skippedPriorities(applied); len(skipped) > 0 {
		review, err = p.corrector.Matches(text, p.cfg.Contexts, correct.WithPriorities(skipped...))
		if err != nil {
			return "", nil, err
		}
	}
	return corrected, review, nil
}

// skippedPriorities returns the tiers NOT covered by applied. A nil applied
// set means every tier is applied.
func skippedPriorities(applied []int) []int {
	if applied == nil {
		return nil
	}
	in := make(map[int]bool, len(applied))
	for _, pr := range applied {
		in[pr] = true
	}
	var out []int
	for pr := terms.PriorityCritical; pr <= terms.PriorityLow; pr++ {
		if !in[pr] {
			out = append(out, pr)
		}
	}
	return out
}

// recordReplacements counts, per context, the applied-tier rules that fired
// on the raw text and feeds the counters.
func (p *Pipeline) recordReplacements(ctx context.Context, rawText string) {
	var opts []correct.ApplyOption
	if applied := p.cfg.CorrectionMode.Priorities(); applied != nil {
		opts = append(opts, correct.WithPriorities(applied...))
	}
	hits, err := p.corrector.Matches(rawText, p.cfg.Contexts, opts...)
	if err != nil {
		return
	}
	perContext := make(map[string]int64)
	for _, h := range hits {
		perContext[h.Context]++
	}
	for name, n := range perContext {
		p.metrics.RecordReplacements(ctx, name, n)
	}
}

// buildHint assembles the engine hint from the configured contexts in order:
// prompts are joined, hotwords concatenated with first-occurrence dedup.
func (p *Pipeline) buildHint() (asr.Hint, error) {
	var (
		prompts  []string
		hotwords []string
		seen     = make(map[string]bool)
	)
	for _, name := range p.cfg.Contexts {
		tc, err := p.store.Context(name)
		if err != nil {
			return asr.Hint{}, err
		}
		if tc.Prompt != "" {
			prompts = append(prompts, tc.Prompt)
		}
		for _, hw := range tc.Hotwords {
			key := strings.ToLower(hw)
			if hw == "" || seen[key] {
				continue
			}
			seen[key] = true
			hotwords = append(hotwords, hw)
		}
	}
	return asr.Hint{
		Prompt:   strings.Join(prompts, " "),
		Hotwords: hotwords,
	}, nil
}
