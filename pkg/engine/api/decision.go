package api

import (
	"fmt"
	"strings"

	"github.com/gatewarden/gatewarden/api/gatewarden/v1alpha1"
)

// Verdict is the outcome of an admission evaluation.
type Verdict string

const (
	// VerdictAllow admits the request.
	VerdictAllow Verdict = "allow"
	// VerdictDeny rejects the request.
	VerdictDeny Verdict = "deny"
	// VerdictAuditAllow admits the request but carries recorded failures
	// from audit-mode rules.
	VerdictAuditAllow Verdict = "audit-allow"
)

// Reason records the outcome of a single rule for a single image.
type Reason struct {
	// Rule is the name of the policy rule that produced this reason.
	Rule string `json:"rule"`

	// Mode is the rule's validation mode.
	Mode v1alpha1.ValidationMode `json:"mode"`

	// Message explains the failure in terms a user can act on.
	Message string `json:"message"`
}

func (r Reason) String() string {
	if r.Rule == "" {
		return r.Message
	}
	return fmt.Sprintf("rule %s: %s", r.Rule, r.Message)
}

// Decision is the verdict for one image under one policy version. Decisions
// are keyed by digest, never by tag, and are immutable once created: a
// changed input produces a new Decision.
type Decision struct {
	// Image is the image reference the decision was made for.
	Image string `json:"image"`

	// Digest is the image digest the decision is keyed by.
	Digest string `json:"digest,omitempty"`

	// PolicyVersion is the version of the policy the decision was made under.
	PolicyVersion string `json:"policyVersion"`

	// Verdict is the per-image outcome.
	Verdict Verdict `json:"verdict"`

	// Reasons is the ordered list of per-rule outcomes that produced the
	// verdict. A deny decision always carries at least one reason.
	Reasons []Reason `json:"reasons,omitempty"`
}

// EngineResponse is the verdict for a whole admission request.
type EngineResponse struct {
	// Verdict is the request-level outcome: deny if any enforce-mode rule
	// failed for any image, else allow.
	Verdict Verdict `json:"verdict"`

	// PolicyVersion is the version of the policy the request was evaluated
	// against.
	PolicyVersion string `json:"policyVersion"`

	// Decisions holds one decision per image reference in the request.
	Decisions []Decision `json:"decisions"`
}

// IsAllowed reports whether the request may be admitted.
func (r *EngineResponse) IsAllowed() bool {
	return r.Verdict != VerdictDeny
}

// Reasons returns the ordered reason messages across all image decisions,
// suitable for surfacing as an admission rejection message.
func (r *EngineResponse) Reasons() []string {
	var out []string
	for _, d := range r.Decisions {
		for _, reason := range d.Reasons {
			out = append(out, fmt.Sprintf("image %s: %s", d.Image, reason.String()))
		}
	}
	return out
}

// Message renders the response reasons as a single admission message.
func (r *EngineResponse) Message() string {
	return strings.Join(r.Reasons(), "; ")
}
