// Package mock provides a configurable in-memory [asr.Provider] for tests.
package mock

import (
	"context"
	"sync"

	"github.com/termscribe/termscribe/pkg/provider/asr"
)

// Call records one Transcribe invocation.
type Call struct {
	AudioPath string
	Hint      asr.Hint
}

// Provider is a test double for [asr.Provider]. It returns canned transcripts
// keyed by audio path (falling back to Text) and records every call.
type Provider struct {
	// Text is the transcript returned when no per-path entry matches.
	Text string

	// ByPath maps an exact audio path to its canned transcript text.
	ByPath map[string]string

	// Err, when non-nil, is returned by every Transcribe call.
	Err error

	// Reqs is what Requirements reports. Zero value means no constraints.
	Reqs asr.Requirements

	mu    sync.Mutex
	calls []Call
}

var _ asr.Provider = (*Provider)(nil)

// Name implements [asr.Provider].
func (p *Provider) Name() string { return "mock" }

// Requirements implements [asr.Provider].
func (p *Provider) Requirements() asr.Requirements { return p.Reqs }

// Transcribe implements [asr.Provider].
func (p *Provider) Transcribe(ctx context.Context, audioPath string, hint asr.Hint) (*asr.Transcript, error) {
	p.mu.Lock()
	p.calls = append(p.calls, Call{AudioPath: audioPath, Hint: hint})
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}

	text := p.Text
	if t, ok := p.ByPath[audioPath]; ok {
		text = t
	}
	return &asr.Transcript{Text: text}, nil
}

// Calls returns a copy of all recorded Transcribe calls.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}
