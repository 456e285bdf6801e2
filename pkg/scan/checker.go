package scan

import (
	"fmt"
	"time"

	"github.com/gatewarden/gatewarden/api/gatewarden/v1alpha1"
)

// Check validates a scan report against a freshness window and a severity
// threshold. The first failed check wins. The caller injects `now` so the
// check stays deterministic.
func Check(report *Report, maxAge time.Duration, maxSeverity v1alpha1.Severity, now time.Time) (bool, string) {
	if report == nil {
		return false, "no scan report"
	}
	if now.Sub(report.ScanTime) > maxAge {
		return false, fmt.Sprintf("scan stale: scanned at %s, max age %s", report.ScanTime.Format(time.RFC3339), maxAge)
	}
	if report.MaxSeverityFound.Above(maxSeverity) {
		count := report.Counts[report.MaxSeverityFound]
		return false, fmt.Sprintf("found %d %s vulnerabilities, max severity allowed is %s", count, report.MaxSeverityFound, maxSeverity)
	}
	return true, ""
}
