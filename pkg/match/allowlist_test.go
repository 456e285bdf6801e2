package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatewarden/gatewarden/pkg/image"
)

func info(t *testing.T, ref string) *image.Info {
	t.Helper()
	i, err := image.GetInfo(ref)
	assert.NoError(t, err)
	return i
}

func Test_Registry(t *testing.T) {
	tests := []struct {
		name     string
		image    string
		patterns []string
		want     bool
	}{{
		name:     "empty allowlist denies",
		image:    "harbor.example.com/myteam/myapp:v1",
		patterns: nil,
		want:     false,
	}, {
		name:     "exact match",
		image:    "harbor.example.com/myteam/myapp:v1",
		patterns: []string{"harbor.example.com/myteam/myapp"},
		want:     true,
	}, {
		name:     "single segment wildcard",
		image:    "harbor.example.com/myteam/myapp:v1",
		patterns: []string{"harbor.example.com/*/myapp"},
		want:     true,
	}, {
		name:     "single segment wildcard does not span segments",
		image:    "harbor.example.com/myteam/sub/myapp:v1",
		patterns: []string{"harbor.example.com/*/myapp"},
		want:     false,
	}, {
		name:     "trailing wildcard matches remainder",
		image:    "harbor.example.com/myteam/sub/myapp:v1",
		patterns: []string{"harbor.example.com/myteam/*"},
		want:     true,
	}, {
		name:     "trailing wildcard requires a remainder",
		image:    "docker.io/busybox",
		patterns: []string{"docker.io/busybox/*"},
		want:     false,
	}, {
		name:     "whole registry",
		image:    "ghcr.io/myorg/myapp:v2",
		patterns: []string{"ghcr.io/*"},
		want:     true,
	}, {
		name:     "host wildcard",
		image:    "harbor.example.com/myteam/myapp:v1",
		patterns: []string{"*.example.com/*"},
		want:     true,
	}, {
		name:     "host mismatch",
		image:    "registry.gitlab.com/myteam/myapp:v1",
		patterns: []string{"harbor.example.com/*"},
		want:     false,
	}, {
		name:     "bare host allows the whole registry",
		image:    "harbor.example.com/myapp:v1",
		patterns: []string{"harbor.example.com"},
		want:     true,
	}, {
		name:     "bare host does not allow other registries",
		image:    "registry.gitlab.com/myteam/myapp:v1",
		patterns: []string{"harbor.example.com"},
		want:     false,
	}, {
		name:     "pattern longer than path",
		image:    "harbor.example.com/myapp:v1",
		patterns: []string{"harbor.example.com/myteam/myapp"},
		want:     false,
	}, {
		name:     "second pattern matches",
		image:    "ghcr.io/myorg/myapp:v2",
		patterns: []string{"harbor.example.com/*", "ghcr.io/myorg/*"},
		want:     true,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Registry(info(t, tt.image), tt.patterns)
			assert.Equal(t, tt.want, got)
		})
	}
}
