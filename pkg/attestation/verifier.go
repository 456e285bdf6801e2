package attestation

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/gatewarden/gatewarden/api/gatewarden/v1alpha1"
	engineapi "github.com/gatewarden/gatewarden/pkg/engine/api"
	"github.com/gatewarden/gatewarden/pkg/match"
)

// VerifyResult is the outcome of checking an image digest against the
// attestor sets of a rule.
type VerifyResult struct {
	// Satisfied is true when every required attestor set was satisfied.
	Satisfied bool

	// MatchedAttestors lists the attestors whose signatures verified.
	MatchedAttestors []v1alpha1.Attestor

	// Errors carries the reasons candidates were rejected. Populated on
	// failure so a deny decision can explain itself.
	Errors []string
}

// Verifier checks attestations for image digests against attestor sets.
// It is stateless and safe for concurrent use.
type Verifier struct {
	logger logr.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(logger logr.Logger) *Verifier {
	return &Verifier{logger: logger}
}

// Verify fetches the candidate attestations for a digest once and checks
// every attestor set against them. All sets must be satisfied; within a set
// RequiredCount entries must each be matched by at least one candidate.
// Fetch failures, malformed attestations and signature mismatches count as
// non-matches, never as a pass: total absence of a satisfying set is a deny.
func (v *Verifier) Verify(ctx context.Context, digest string, repository string, sets []v1alpha1.AttestorSet, source Source) VerifyResult {
	candidates, err := source.Fetch(ctx, digest)
	if err != nil {
		fetchErr := engineapi.NewFetchError(err)
		v.logger.V(2).Info("attestation fetch failed", "digest", digest, "error", fetchErr.Error())
		return VerifyResult{Satisfied: false, Errors: []string{fetchErr.Error()}}
	}

	result := VerifyResult{Satisfied: true}
	for i, set := range sets {
		matched, errs := v.verifySet(set, digest, repository, candidates)
		for _, err := range errs {
			result.Errors = append(result.Errors, fmt.Sprintf("attestors[%d]: %s", i, err.Error()))
		}
		if len(matched) < set.RequiredCount() {
			v.logger.V(2).Info("attestor set not satisfied", "digest", digest, "verifiedCount", len(matched), "requiredCount", set.RequiredCount())
			result.Satisfied = false
			if len(errs) == 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("attestors[%d]: no matching attestor", i))
			}
			continue
		}
		result.MatchedAttestors = append(result.MatchedAttestors, matched...)
	}
	if !result.Satisfied && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "no matching attestor")
	}
	return result
}

// verifySet counts attestor entries matched by at least one candidate,
// stopping once the required count is reached.
func (v *Verifier) verifySet(set v1alpha1.AttestorSet, digest, repository string, candidates []Attestation) ([]v1alpha1.Attestor, []error) {
	var matched []v1alpha1.Attestor
	var errorList []error
	requiredCount := set.RequiredCount()

	for _, attestor := range set.Entries {
		if len(attestor.Repositories) > 0 && !match.CheckNames(attestor.Repositories, repository) {
			errorList = append(errorList, fmt.Errorf("attestor not trusted for repository %s", repository))
			continue
		}
		if err := v.verifyEntry(attestor, set.PredicateType, digest, candidates); err != nil {
			errorList = append(errorList, err)
			continue
		}
		matched = append(matched, attestor)
		if len(matched) >= requiredCount {
			break
		}
	}

	if len(matched) < requiredCount {
		combined := multierr.Combine(errorList...)
		if combined != nil {
			v.logger.V(2).Info("attestor verification failed", "digest", digest, "verifiedCount", len(matched), "requiredCount", requiredCount, "errors", combined.Error())
		}
	}
	return matched, errorList
}

// verifyEntry checks whether any candidate attestation satisfies the
// attestor: digest binding, predicate type and signature must all hold.
func (v *Verifier) verifyEntry(attestor v1alpha1.Attestor, predicateType, digest string, candidates []Attestation) error {
	var errorList []error
	for _, candidate := range candidates {
		if err := checkBinding(candidate, digest, predicateType); err != nil {
			errorList = append(errorList, engineapi.NewValidationError(err))
			continue
		}
		var err error
		switch {
		case attestor.Keys != nil:
			err = verifySignatureWithKeys(attestor.Keys.PublicKeys, candidate)
		case attestor.Keyless != nil:
			err = verifySignatureKeyless(attestor.Keyless, candidate)
		default:
			err = fmt.Errorf("attestor has no keys and no keyless identity")
		}
		if err == nil {
			return nil
		}
		errorList = append(errorList, engineapi.NewValidationError(err))
	}
	if len(errorList) == 0 {
		return fmt.Errorf("no matching attestor: no candidate attestations for digest %s", digest)
	}
	return multierr.Combine(errorList...)
}
