package v1alpha1

import (
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// AttestorSet is a group of attestors with a threshold. The set is satisfied
// when at least Count entries verify; a nil or zero Count means any single
// entry is sufficient.
type AttestorSet struct {
	// Count is the required number of entries that must verify. If set it
	// must be at least 1 and at most the number of entries.
	// +kubebuilder:validation:Minimum=1
	// +optional
	Count *int `json:"count,omitempty" yaml:"count,omitempty"`

	// PredicateType requires the set to be satisfied by attestations
	// carrying this in-toto predicate type, e.g. a provenance statement.
	// When empty a plain image signature is required.
	// +optional
	PredicateType string `json:"predicateType,omitempty" yaml:"predicateType,omitempty"`

	// Entries contains the available attestors.
	Entries []Attestor `json:"entries" yaml:"entries"`
}

// Attestor is a trusted signer identity. Exactly one of Keys or Keyless
// must be set.
type Attestor struct {
	// Keys trusts signatures made with one of the given public keys.
	// +optional
	Keys *KeyAttestor `json:"keys,omitempty" yaml:"keys,omitempty"`

	// Keyless trusts certificate-based signatures with a matching
	// subject and issuer identity.
	// +optional
	Keyless *KeylessAttestor `json:"keyless,omitempty" yaml:"keyless,omitempty"`

	// Repositories scopes the attestor to repositories matching one of the
	// given glob patterns. An empty list trusts the attestor for any
	// repository.
	// +optional
	Repositories []string `json:"repositories,omitempty" yaml:"repositories,omitempty"`
}

// KeyAttestor holds one or more PEM encoded public keys.
type KeyAttestor struct {
	// PublicKeys is a PEM block with one or more public keys. A signature
	// by any one of the keys satisfies the attestor.
	PublicKeys string `json:"publicKeys" yaml:"publicKeys"`
}

// KeylessAttestor identifies a certificate-based (keyless) signer.
type KeylessAttestor struct {
	// Subject is the expected certificate identity, for example an email
	// address or a CI workflow URI. Wildcards are allowed.
	Subject string `json:"subject" yaml:"subject"`

	// Issuer is the OIDC issuer that vouched for the subject, matched
	// exactly, e.g. `https://token.actions.githubusercontent.com`.
	Issuer string `json:"issuer" yaml:"issuer"`
}

// RequiredCount returns the number of entries that must verify for the set
// to be satisfied.
func (s *AttestorSet) RequiredCount() int {
	if s.Count == nil || *s.Count == 0 {
		return 1
	}
	return *s.Count
}

// Validate implements programmatic validation.
func (s *AttestorSet) Validate(path *field.Path) field.ErrorList {
	var errs field.ErrorList
	if len(s.Entries) == 0 {
		errs = append(errs, field.Required(path.Child("entries"), "an attestor set requires at least one entry"))
	}
	if s.Count != nil && (*s.Count < 1 || *s.Count > len(s.Entries)) {
		errs = append(errs, field.Invalid(path.Child("count"), *s.Count, "count must be between 1 and the number of entries"))
	}
	for i, a := range s.Entries {
		errs = append(errs, a.Validate(path.Child("entries").Index(i))...)
	}
	return errs
}

// Validate implements programmatic validation.
func (a *Attestor) Validate(path *field.Path) field.ErrorList {
	var errs field.ErrorList
	hasKeys := a.Keys != nil
	hasKeyless := a.Keyless != nil
	if hasKeys == hasKeyless {
		errs = append(errs, field.Invalid(path, a, "exactly one of keys or keyless is required"))
		return errs
	}
	if hasKeys && a.Keys.PublicKeys == "" {
		errs = append(errs, field.Required(path.Child("keys", "publicKeys"), "publicKeys is required"))
	}
	if hasKeyless {
		if a.Keyless.Subject == "" {
			errs = append(errs, field.Required(path.Child("keyless", "subject"), "subject is required"))
		}
		if a.Keyless.Issuer == "" {
			errs = append(errs, field.Required(path.Child("keyless", "issuer"), "issuer is required"))
		}
	}
	return errs
}
