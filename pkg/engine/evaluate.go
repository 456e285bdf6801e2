package engine

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/gatewarden/gatewarden/api/gatewarden/v1alpha1"
	"github.com/gatewarden/gatewarden/pkg/decisioncache"
	engineapi "github.com/gatewarden/gatewarden/pkg/engine/api"
	"github.com/gatewarden/gatewarden/pkg/image"
	"github.com/gatewarden/gatewarden/pkg/match"
	"github.com/gatewarden/gatewarden/pkg/policy"
	"github.com/gatewarden/gatewarden/pkg/scan"
)

// Evaluate decides whether an admission request may proceed under the given
// policy snapshot. Every image reference in the request receives exactly one
// decision; any failed enforce-mode rule denies the request while audit-mode
// failures are recorded without changing the outcome. Evaluation never
// aborts on a runtime verification failure: fetch errors and malformed
// inputs fail closed with a reason.
func (e *Engine) Evaluate(ctx context.Context, request engineapi.AdmissionRequest, compiled *policy.CompiledPolicy) engineapi.EngineResponse {
	logger := e.logger.WithValues("namespace", request.Namespace, "kind", request.Kind)

	if compiled == nil {
		return engineapi.EngineResponse{
			Verdict: engineapi.VerdictDeny,
			Decisions: []engineapi.Decision{{
				Verdict: engineapi.VerdictDeny,
				Reasons: []engineapi.Reason{{Message: "no policy loaded"}},
			}},
		}
	}

	response := engineapi.EngineResponse{
		Verdict:       engineapi.VerdictAllow,
		PolicyVersion: compiled.Version(),
	}
	for _, ref := range request.Images {
		decision := e.evaluateImage(ctx, logger, request, compiled, ref)
		switch decision.Verdict {
		case engineapi.VerdictDeny:
			response.Verdict = engineapi.VerdictDeny
		case engineapi.VerdictAuditAllow:
			if response.Verdict == engineapi.VerdictAllow {
				response.Verdict = engineapi.VerdictAuditAllow
			}
		}
		response.Decisions = append(response.Decisions, decision)
	}

	logger.V(2).Info("evaluated request", "verdict", response.Verdict, "policyVersion", response.PolicyVersion, "images", len(request.Images))
	return response
}

func (e *Engine) evaluateImage(ctx context.Context, logger logr.Logger, request engineapi.AdmissionRequest, compiled *policy.CompiledPolicy, ref string) engineapi.Decision {
	info, err := image.GetInfo(ref)
	if err != nil {
		// an unparseable reference can never be verified
		return engineapi.Decision{
			Image:         ref,
			PolicyVersion: compiled.Version(),
			Verdict:       engineapi.VerdictDeny,
			Reasons: []engineapi.Reason{{
				Message: engineapi.NewValidationError(err).Error(),
			}},
		}
	}

	// which rules apply depends on the request namespace and kind, so the
	// cache scope carries both; a decision is only replayed for requests
	// that match the same rule set
	scope := decisioncache.Scope{Namespace: request.Namespace, Kind: request.Kind}
	if info.HasDigest() {
		if cached, found := e.cache.Get(ctx, info.Digest, compiled.Version(), scope); found {
			logger.V(2).Info("decision served from cache", "digest", info.Digest, "verdict", cached.Verdict)
			decision := *cached
			decision.Image = ref
			return decision
		}
	}

	decision := engineapi.Decision{
		Image:         ref,
		Digest:        info.Digest,
		PolicyVersion: compiled.Version(),
		Verdict:       engineapi.VerdictAllow,
	}
	for _, rule := range compiled.Rules() {
		if !rule.MatchesRequest(request.Namespace, request.Kind) || !rule.MatchesImage(info.String()) {
			continue
		}
		failures := e.checkRule(ctx, rule, info)
		if len(failures) == 0 {
			continue
		}
		mode := rule.Rule.GetMode()
		for _, failure := range failures {
			decision.Reasons = append(decision.Reasons, engineapi.Reason{
				Rule:    rule.Rule.Name,
				Mode:    mode,
				Message: failure,
			})
		}
		if mode == v1alpha1.Enforce {
			decision.Verdict = engineapi.VerdictDeny
		} else if decision.Verdict == engineapi.VerdictAllow {
			decision.Verdict = engineapi.VerdictAuditAllow
		}
	}

	if info.HasDigest() {
		e.cache.Set(ctx, info.Digest, compiled.Version(), scope, decision)
	}
	return decision
}

// checkRule runs the requirement checks the rule declares and returns the
// failure messages, in check order.
func (e *Engine) checkRule(ctx context.Context, rule policy.CompiledRule, info *image.Info) []string {
	var failures []string

	if rule.Rule.AllowedRegistries != nil && !match.Registry(info, rule.Rule.AllowedRegistries) {
		failures = append(failures, fmt.Sprintf("image %s/%s is not from an allowed registry", info.Registry, info.Path))
	}

	if rule.Rule.RequiresDigest() && !info.HasDigest() {
		failures = append(failures, "image is not pinned to a digest")
	}

	if len(rule.Rule.Attestors) > 0 {
		if !info.HasDigest() {
			failures = append(failures, "cannot verify attestations without an image digest")
		} else {
			fetchCtx, cancel := e.fetchContext(ctx)
			result := e.verifier.Verify(fetchCtx, info.Digest, info.Path, rule.Rule.Attestors, e.attestations)
			cancel()
			if !result.Satisfied {
				failures = append(failures, result.Errors...)
			}
		}
	}

	if rule.Rule.Scan != nil {
		if !info.HasDigest() {
			failures = append(failures, "cannot check scan report without an image digest")
		} else {
			failures = append(failures, e.checkScan(ctx, rule.Rule.Scan, info.Digest)...)
		}
	}

	return failures
}

func (e *Engine) checkScan(ctx context.Context, requirement *v1alpha1.ScanRequirement, digest string) []string {
	fetchCtx, cancel := e.fetchContext(ctx)
	defer cancel()

	report, err := e.scans.Fetch(fetchCtx, digest)
	if err != nil {
		return []string{engineapi.NewFetchError(err).Error()}
	}
	// the source may hand back a report for the wrong image; the report
	// digest must be well formed and match the digest it was fetched for
	if report != nil {
		if err := image.ValidateDigest(report.Digest); err != nil {
			return []string{engineapi.NewValidationError(fmt.Errorf("malformed scan report digest %s: %w", report.Digest, err)).Error()}
		}
		if report.Digest != digest {
			return []string{engineapi.NewValidationError(fmt.Errorf("scan report is for digest %s, not %s", report.Digest, digest)).Error()}
		}
	}
	ok, reason := scan.Check(report, requirement.MaxAge.Duration, requirement.MaxSeverity, e.clock())
	if !ok {
		return []string{reason}
	}
	return nil
}
