package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ValidationMode controls what happens when a rule's requirements are not met.
type ValidationMode string

const (
	// Enforce denies admission when a requirement fails.
	Enforce ValidationMode = "Enforce"
	// Audit records the failure but allows the request.
	Audit ValidationMode = "Audit"
)

// Policy declares the admission requirements for container images.
// A policy is an ordered set of rules; all rules matching a request are
// evaluated and any failed Enforce rule denies the request.
type Policy struct {
	metav1.TypeMeta   `json:",inline" yaml:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Spec PolicySpec `json:"spec" yaml:"spec"`
}

// PolicySpec holds the policy rules and an optional explicit version.
type PolicySpec struct {
	// Version identifies this revision of the policy. Decisions are cached
	// per policy version, so any edit must change the version. When empty
	// a version is derived from the spec content at load time.
	// +optional
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Rules is the ordered list of admission rules.
	Rules []Rule `json:"rules" yaml:"rules"`
}

// Rule selects a set of requests and declares the image requirements that
// apply to them.
type Rule struct {
	// Name is a label to identify the rule. It must be unique within the policy.
	// +kubebuilder:validation:MaxLength=63
	Name string `json:"name" yaml:"name"`

	// Match selects the requests this rule applies to.
	Match MatchResources `json:"match,omitempty" yaml:"match,omitempty"`

	// Mode determines whether a failed requirement denies the request
	// (Enforce) or is only recorded (Audit). Defaults to Enforce.
	// +optional
	Mode ValidationMode `json:"mode,omitempty" yaml:"mode,omitempty"`

	// AllowedRegistries restricts where matched images may originate from.
	// Each pattern matches the registry host and repository path segments;
	// `*` matches a single path segment, a trailing `/*` matches any
	// remainder, and a bare host allows the whole registry. An empty list
	// denies every image.
	// +optional
	AllowedRegistries []string `json:"allowedRegistries,omitempty" yaml:"allowedRegistries,omitempty"`

	// RequireDigest rejects image references that are not pinned to a
	// digest. Defaults to true: admission decisions are keyed by digest
	// and mutable tags are not a usable identity.
	// +optional
	RequireDigest *bool `json:"requireDigest,omitempty" yaml:"requireDigest,omitempty"`

	// Attestors lists the attestor sets that must all be satisfied by
	// signed attestations on the image.
	// +optional
	Attestors []AttestorSet `json:"attestors,omitempty" yaml:"attestors,omitempty"`

	// Scan declares the vulnerability scan requirement for matched images.
	// +optional
	Scan *ScanRequirement `json:"scan,omitempty" yaml:"scan,omitempty"`
}

// MatchResources selects admission requests by namespace, kind and image.
// Empty fields match everything.
type MatchResources struct {
	// Namespaces is a list of namespace names, wildcards allowed.
	// +optional
	Namespaces []string `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`

	// Kinds is a list of resource kinds, wildcards allowed.
	// +optional
	Kinds []string `json:"kinds,omitempty" yaml:"kinds,omitempty"`

	// ImageGlobs is a list of glob patterns matched against the full image
	// reference, e.g. `ghcr.io/myorg/*`.
	// +optional
	ImageGlobs []string `json:"imageGlobs,omitempty" yaml:"imageGlobs,omitempty"`
}

// ScanRequirement requires a recent vulnerability scan report below a
// severity threshold.
type ScanRequirement struct {
	// MaxAge is the maximum accepted age of the scan report. A report is
	// stale once `now - scanTime > maxAge`.
	MaxAge metav1.Duration `json:"maxAge" yaml:"maxAge"`

	// MaxSeverity is the highest vulnerability severity tolerated in the
	// report. Defaults to UNKNOWN, which tolerates nothing above it.
	// +optional
	MaxSeverity Severity `json:"maxSeverity,omitempty" yaml:"maxSeverity,omitempty"`
}

// GetMode returns the rule's validation mode, defaulting to Enforce.
func (r *Rule) GetMode() ValidationMode {
	if r.Mode == "" {
		return Enforce
	}
	return r.Mode
}

// RequiresDigest returns true unless the rule explicitly opts out of
// digest pinning.
func (r *Rule) RequiresDigest() bool {
	return r.RequireDigest == nil || *r.RequireDigest
}

// Validate implements programmatic validation.
func (p *Policy) Validate() field.ErrorList {
	var errs field.ErrorList
	specPath := field.NewPath("spec")
	if len(p.Spec.Rules) == 0 {
		errs = append(errs, field.Required(specPath.Child("rules"), "a policy requires at least one rule"))
	}
	names := map[string]bool{}
	for i, rule := range p.Spec.Rules {
		path := specPath.Child("rules").Index(i)
		if rule.Name == "" {
			errs = append(errs, field.Required(path.Child("name"), "rule name is required"))
		} else if names[rule.Name] {
			errs = append(errs, field.Duplicate(path.Child("name"), rule.Name))
		}
		names[rule.Name] = true
		errs = append(errs, rule.Validate(path)...)
	}
	return errs
}

// Validate implements programmatic validation.
func (r *Rule) Validate(path *field.Path) field.ErrorList {
	var errs field.ErrorList
	if r.Mode != "" && r.Mode != Enforce && r.Mode != Audit {
		errs = append(errs, field.NotSupported(path.Child("mode"), r.Mode, []string{string(Enforce), string(Audit)}))
	}
	for i, set := range r.Attestors {
		errs = append(errs, set.Validate(path.Child("attestors").Index(i))...)
	}
	if r.Scan != nil {
		errs = append(errs, r.Scan.Validate(path.Child("scan"))...)
	}
	return errs
}

// Validate implements programmatic validation.
func (s *ScanRequirement) Validate(path *field.Path) field.ErrorList {
	var errs field.ErrorList
	if s.MaxAge.Duration <= 0 {
		errs = append(errs, field.Invalid(path.Child("maxAge"), s.MaxAge.Duration.String(), "maxAge must be a positive duration"))
	}
	if s.MaxSeverity != "" {
		if _, err := ParseSeverity(string(s.MaxSeverity)); err != nil {
			errs = append(errs, field.Invalid(path.Child("maxSeverity"), s.MaxSeverity, err.Error()))
		}
	}
	return errs
}
