package decisioncache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/go-logr/logr"

	engineapi "github.com/gatewarden/gatewarden/pkg/engine/api"
)

// Client memoizes per-digest decisions so repeated admission requests for an
// unchanged image do not re-run verification. Keys combine the image digest,
// the policy version and the request scope (namespace and kind): a policy
// edit changes the version and implicitly invalidates every prior entry,
// and a decision computed where one rule set matched is never replayed into
// a scope where a different rule set applies. Entries expire after the
// configured TTL regardless of use, because the scan report a decision
// depends on can go stale even though the digest is immutable.
type Client interface {
	Get(ctx context.Context, digest string, policyVersion string, scope Scope) (*engineapi.Decision, bool)
	Set(ctx context.Context, digest string, policyVersion string, scope Scope, decision engineapi.Decision) bool
	Clear()
}

// Scope identifies the request fields rule selectors depend on. Two
// requests with the same scope always match the same rule set under a
// given policy version.
type Scope struct {
	Namespace string
	Kind      string
}

type cache struct {
	logger         logr.Logger
	isCacheEnabled bool
	maxSize        int64
	ttl            time.Duration
	store          *ristretto.Cache
}

type Option = func(*cache) error

// New creates a decision cache.
func New(options ...Option) (Client, error) {
	cache := &cache{
		logger:  logr.Discard(),
		maxSize: 1000,
	}
	for _, opt := range options {
		if err := opt(cache); err != nil {
			return nil, err
		}
	}
	if !cache.isCacheEnabled {
		return cache, nil
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		MaxCost:     cache.maxSize,
		NumCounters: cache.maxSize * 10,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	cache.store = store
	return cache, nil
}

// Disabled returns a cache that never stores anything.
func Disabled() Client {
	return &cache{
		logger:         logr.Discard(),
		isCacheEnabled: false,
	}
}

func WithLogger(l logr.Logger) Option {
	return func(c *cache) error {
		c.logger = l
		return nil
	}
}

func WithCacheEnableFlag(b bool) Option {
	return func(c *cache) error {
		c.isCacheEnabled = b
		return nil
	}
}

// WithMaxSize bounds the number of cached decisions.
func WithMaxSize(s int64) Option {
	return func(c *cache) error {
		c.maxSize = s
		return nil
	}
}

// WithTTLDuration sets the time-based eviction window. The engine requires
// the TTL to stay within the policy's scan max age; that invariant is
// checked at policy compile time.
func WithTTLDuration(t time.Duration) Option {
	return func(c *cache) error {
		c.ttl = t
		return nil
	}
}

func key(digest, policyVersion string, scope Scope) string {
	return fmt.Sprintf("%s/%s/%s/%s", digest, policyVersion, scope.Namespace, scope.Kind)
}

func (c *cache) Get(ctx context.Context, digest string, policyVersion string, scope Scope) (*engineapi.Decision, bool) {
	if !c.isCacheEnabled {
		return nil, false
	}
	val, found := c.store.Get(key(digest, policyVersion, scope))
	if !found {
		c.logger.V(4).Info("cache entry not found", "digest", digest, "policyVersion", policyVersion, "namespace", scope.Namespace, "kind", scope.Kind)
		return nil, false
	}
	decision, ok := val.(engineapi.Decision)
	if !ok {
		return nil, false
	}
	c.logger.V(4).Info("cache entry found", "digest", digest, "policyVersion", policyVersion, "namespace", scope.Namespace, "kind", scope.Kind)
	return &decision, true
}

func (c *cache) Set(ctx context.Context, digest string, policyVersion string, scope Scope, decision engineapi.Decision) bool {
	if !c.isCacheEnabled {
		return false
	}
	ok := c.store.SetWithTTL(key(digest, policyVersion, scope), decision, 1, c.ttl)
	if ok {
		c.logger.V(4).Info("set cache entry", "digest", digest, "policyVersion", policyVersion, "namespace", scope.Namespace, "kind", scope.Kind)
	}
	return ok
}

func (c *cache) Clear() {
	if !c.isCacheEnabled {
		return
	}
	c.store.Clear()
}
