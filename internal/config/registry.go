package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/termscribe/termscribe/pkg/provider/asr"
)

// ErrEngineNotRegistered is returned by [Registry.Create] when no factory has
// been registered under the requested engine name.
var ErrEngineNotRegistered = errors.New("config: engine not registered")

// EngineFactory constructs an ASR provider from the loaded configuration.
type EngineFactory func(cfg *Config) (asr.Provider, error)

// Registry maps engine names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	engines map[EngineName]EngineFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{engines: make(map[EngineName]EngineFactory)}
}

// Register registers an engine factory under name. Subsequent calls with the
// same name overwrite the previous registration.
func (r *Registry) Register(name EngineName, factory EngineFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = factory
}

// Create instantiates the ASR provider registered under cfg.Engine.
// Returns [ErrEngineNotRegistered] if no factory has been registered for
// that name.
func (r *Registry) Create(cfg *Config) (asr.Provider, error) {
	r.mu.RLock()
	factory, ok := r.engines[cfg.Engine]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEngineNotRegistered, cfg.Engine)
	}
	return factory(cfg)
}
