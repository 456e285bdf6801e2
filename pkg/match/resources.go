package match

import (
	wildcard "github.com/IGLOU-EU/go-wildcard"
	"github.com/gobwas/glob"
)

// CheckName checks a name against an expected pattern, with wildcard support.
func CheckName(expected, actual string) bool {
	return wildcard.Match(expected, actual)
}

// CheckNames checks a name against a list of expected patterns. An empty
// list matches any name.
func CheckNames(expected []string, actual string) bool {
	if len(expected) == 0 {
		return true
	}
	for _, e := range expected {
		if CheckName(e, actual) {
			return true
		}
	}
	return false
}

// CompileGlobs compiles a list of image glob patterns.
func CompileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// CheckImage checks an image reference against compiled glob patterns. An
// empty list matches any image.
func CheckImage(globs []glob.Glob, image string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if g.Match(image) {
			return true
		}
	}
	return false
}
