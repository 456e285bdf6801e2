package match

import (
	"strings"

	wildcard "github.com/IGLOU-EU/go-wildcard"

	"github.com/gatewarden/gatewarden/pkg/image"
)

// Registry checks an image reference origin against a registry allowlist.
// A pattern is a `/` separated list of segments; the first segment matches
// the registry host and the remaining segments match the repository path.
// `*` matches a single path segment, a trailing `/*` matches any remainder,
// and a bare host pattern allows the whole registry. An empty pattern list
// matches nothing so that a missing allowlist stays fail-closed.
func Registry(info *image.Info, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, info) {
			return true
		}
	}
	return false
}

func matchPattern(pattern string, info *image.Info) bool {
	segments := strings.Split(pattern, "/")
	host, pathPattern := segments[0], segments[1:]
	if !wildcard.Match(host, info.Registry) {
		return false
	}
	// a bare host allows the whole registry
	if len(pathPattern) == 0 {
		return true
	}
	pathSegments := strings.Split(info.Path, "/")
	for i, p := range pathPattern {
		trailing := i == len(pathPattern)-1
		if p == "*" && trailing {
			// any non-empty remainder
			return len(pathSegments) > i
		}
		if i >= len(pathSegments) {
			return false
		}
		if !wildcard.Match(p, pathSegments[i]) {
			return false
		}
	}
	return len(pathPattern) == len(pathSegments)
}
