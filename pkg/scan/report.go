package scan

import (
	"context"
	"time"

	"github.com/gatewarden/gatewarden/api/gatewarden/v1alpha1"
)

// Report is a vulnerability scan report attached to an image digest. Reports
// are produced externally and consumed read-only.
type Report struct {
	// Digest is the image digest the report was produced for.
	Digest string `json:"digest"`

	// ScanTime is when the scan ran.
	ScanTime time.Time `json:"scanTime"`

	// Counts holds the number of findings per severity.
	Counts map[v1alpha1.Severity]int `json:"counts,omitempty"`

	// MaxSeverityFound is the highest severity present in the report.
	MaxSeverityFound v1alpha1.Severity `json:"maxSeverityFound"`
}

// Source fetches the scan report attached to an image digest. A nil report
// with a nil error means no report is attached. Implementations are supplied
// by a vulnerability scanning integration.
type Source interface {
	Fetch(ctx context.Context, digest string) (*Report, error)
}
