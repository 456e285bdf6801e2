package engine

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/gatewarden/gatewarden/pkg/attestation"
	"github.com/gatewarden/gatewarden/pkg/decisioncache"
	"github.com/gatewarden/gatewarden/pkg/logging"
	"github.com/gatewarden/gatewarden/pkg/scan"
)

// Engine evaluates admission requests against a compiled policy. It holds
// no mutable state of its own and is safe for concurrent use; the decision
// cache and the policy snapshots take care of their own synchronization.
type Engine struct {
	logger       logr.Logger
	attestations attestation.Source
	scans        scan.Source
	verifier     *attestation.Verifier
	cache        decisioncache.Client
	fetchTimeout time.Duration
	clock        func() time.Time
}

type Option = func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logr.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithDecisionCache sets the decision cache. Without it every request is
// verified from scratch.
func WithDecisionCache(c decisioncache.Client) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithFetchTimeout bounds every attestation and scan report fetch. A timed
// out fetch is a fetch failure and fails closed; it never suspends the
// evaluation indefinitely.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.fetchTimeout = d
	}
}

// WithClock injects the time source used for scan freshness checks, so
// evaluations are deterministic under test.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// NewEngine creates an Engine using the given collaborators for fetching
// attestations and scan reports.
func NewEngine(attestations attestation.Source, scans scan.Source, options ...Option) *Engine {
	e := &Engine{
		logger:       logging.GlobalLogger().WithName("engine"),
		attestations: attestations,
		scans:        scans,
		cache:        decisioncache.Disabled(),
		fetchTimeout: 10 * time.Second,
		clock:        time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	e.verifier = attestation.NewVerifier(e.logger.WithName("verifier"))
	return e
}

// fetchContext bounds a collaborator call with the configured timeout.
func (e *Engine) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.fetchTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.fetchTimeout)
}
