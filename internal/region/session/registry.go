// Package session keeps the selector controllers of open forms, one per
// session id, and closes those left idle.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"alumni/internal/region/cascade"
	"alumni/internal/region/metrics"
	"alumni/pkg/platform/sentinel"
)

// Factory builds the controller of a new session.
type Factory func() (*cascade.Controller, error)

type entry struct {
	controller *cascade.Controller
	lastUsed   time.Time
}

// Registry maps session ids to mounted controllers.
type Registry struct {
	factory     Factory
	clock       clockwork.Clock
	idleTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithIdleTimeout closes sessions unused for d. Zero keeps them until
// deleted.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.idleTimeout = d
	}
}

func NewRegistry(factory Factory, opts ...Option) (*Registry, error) {
	if factory == nil {
		return nil, errors.New("controller factory is required")
	}
	r := &Registry{
		factory:  factory,
		clock:    clockwork.NewRealClock(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions: make(map[uuid.UUID]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Create builds and mounts a controller under a fresh id.
func (r *Registry) Create(ctx context.Context) (uuid.UUID, *cascade.Controller, error) {
	c, err := r.factory()
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("create selector: %w", err)
	}
	// the session outlives the request that created it
	if err := c.Mount(context.WithoutCancel(ctx)); err != nil {
		c.Close()
		return uuid.Nil, nil, fmt.Errorf("mount selector: %w", err)
	}

	id := uuid.New()
	r.mu.Lock()
	r.sessions[id] = &entry{controller: c, lastUsed: r.clock.Now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSelectors(n)
	r.logger.InfoContext(ctx, "selector session created", "session_id", id.String())
	return id, c, nil
}

// Get returns the controller of id and marks the session used.
func (r *Registry) Get(id uuid.UUID) (*cascade.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("selector session %s: %w", id, sentinel.ErrNotFound)
	}
	e.lastUsed = r.clock.Now()
	return e.controller, nil
}

// Delete unmounts and forgets id.
func (r *Registry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("selector session %s: %w", id, sentinel.ErrNotFound)
	}
	e.controller.Close()
	r.metrics.SetActiveSelectors(n)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns
// how many were closed.
func (r *Registry) Sweep() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.idleTimeout)

	r.mu.Lock()
	var expired []*cascade.Controller
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			expired = append(expired, e.controller)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	if len(expired) > 0 {
		r.metrics.SetActiveSelectors(n)
		r.logger.Info("idle selector sessions closed", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx ends, then closes every session.
func (r *Registry) Run(ctx context.Context) {
	defer r.Close()
	if r.idleTimeout <= 0 {
		<-ctx.Done()
		return
	}
	ticker := r.clock.NewTicker(r.idleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.Sweep()
		}
	}
}

// Close unmounts every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.controller.Close()
	}
	r.metrics.SetActiveSelectors(0)
}
