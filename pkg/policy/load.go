package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/gatewarden/gatewarden/api/gatewarden/v1alpha1"
	engineapi "github.com/gatewarden/gatewarden/pkg/engine/api"
	"github.com/gatewarden/gatewarden/pkg/match"
)

// Load parses a policy from YAML or JSON and validates it. Malformed
// policies are ConfigErrors: fatal at load, the host must refuse to start.
func Load(raw []byte) (*v1alpha1.Policy, error) {
	var policy v1alpha1.Policy
	if err := yaml.UnmarshalStrict(raw, &policy); err != nil {
		return nil, engineapi.NewConfigError("failed to parse policy: %s", err.Error())
	}
	if errs := policy.Validate(); len(errs) > 0 {
		return nil, engineapi.NewConfigError("invalid policy: %s", errs.ToAggregate().Error())
	}
	return &policy, nil
}

// CompiledPolicy is an immutable, pre-compiled policy snapshot. It is built
// off the hot path and published atomically; concurrent evaluations never
// observe a partially updated policy.
type CompiledPolicy struct {
	version string
	rules   []CompiledRule
}

// CompiledRule pairs a policy rule with its compiled image selectors.
type CompiledRule struct {
	Rule       v1alpha1.Rule
	imageGlobs []glob.Glob
}

// Compile validates a policy against the engine's cache configuration and
// compiles its rule selectors. A cache TTL above any rule's scan max age is
// a ConfigError: the cache must not outlive the freshness window the cached
// decisions depend on.
func Compile(policy *v1alpha1.Policy, cacheTTL time.Duration) (*CompiledPolicy, error) {
	if policy == nil {
		return nil, engineapi.NewConfigError("no policy supplied")
	}
	if errs := policy.Validate(); len(errs) > 0 {
		return nil, engineapi.NewConfigError("invalid policy: %s", errs.ToAggregate().Error())
	}
	for _, rule := range policy.Spec.Rules {
		if rule.Scan != nil && cacheTTL > rule.Scan.MaxAge.Duration {
			return nil, engineapi.NewConfigError(
				"cache TTL %s exceeds scan max age %s of rule %s",
				cacheTTL, rule.Scan.MaxAge.Duration, rule.Name,
			)
		}
	}

	version, err := computeVersion(policy)
	if err != nil {
		return nil, err
	}

	compiled := &CompiledPolicy{version: version}
	for _, rule := range policy.Spec.Rules {
		globs, err := match.CompileGlobs(rule.Match.ImageGlobs)
		if err != nil {
			return nil, engineapi.NewConfigError("invalid image glob in rule %s: %s", rule.Name, err.Error())
		}
		compiled.rules = append(compiled.rules, CompiledRule{Rule: rule, imageGlobs: globs})
	}
	return compiled, nil
}

// Version returns the policy version decisions are cached under.
func (p *CompiledPolicy) Version() string {
	return p.version
}

// Rules returns the compiled rules in policy order.
func (p *CompiledPolicy) Rules() []CompiledRule {
	return p.rules
}

// MatchesRequest checks the rule selector against the request namespace and
// kind.
func (r *CompiledRule) MatchesRequest(namespace, kind string) bool {
	return match.CheckNames(r.Rule.Match.Namespaces, namespace) &&
		match.CheckNames(r.Rule.Match.Kinds, kind)
}

// MatchesImage checks the rule's image globs against an image reference.
func (r *CompiledRule) MatchesImage(image string) bool {
	return match.CheckImage(r.imageGlobs, image)
}

// computeVersion returns the explicit spec version when set, otherwise a
// digest of the spec content so that any edit produces a new version.
func computeVersion(policy *v1alpha1.Policy) (string, error) {
	if policy.Spec.Version != "" {
		return policy.Spec.Version, nil
	}
	raw, err := json.Marshal(policy.Spec)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash policy spec")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8]), nil
}
