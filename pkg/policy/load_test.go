package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/gatewarden/gatewarden/api/gatewarden/v1alpha1"
	engineapi "github.com/gatewarden/gatewarden/pkg/engine/api"
)

var policyYAML = []byte(`
apiVersion: gatewarden.io/v1alpha1
kind: Policy
metadata:
  name: default
spec:
  version: v1
  rules:
    - name: require-signature
      match:
        namespaces: ["prod-*"]
        kinds: ["Pod"]
      mode: Enforce
      allowedRegistries:
        - harbor.example.com/*
      attestors:
        - entries:
            - keyless:
                subject: "https://github.com/myorg/*"
                issuer: https://token.actions.githubusercontent.com
      scan:
        maxAge: 24h
        maxSeverity: HIGH
`)

func Test_Load(t *testing.T) {
	policy, err := Load(policyYAML)
	require.NoError(t, err)
	assert.Equal(t, "default", policy.Name)
	require.Len(t, policy.Spec.Rules, 1)
	rule := policy.Spec.Rules[0]
	assert.Equal(t, "require-signature", rule.Name)
	assert.Equal(t, v1alpha1.Enforce, rule.GetMode())
	assert.True(t, rule.RequiresDigest())
	require.NotNil(t, rule.Scan)
	assert.Equal(t, 24*time.Hour, rule.Scan.MaxAge.Duration)
	assert.Equal(t, v1alpha1.SeverityHigh, rule.Scan.MaxSeverity)
}

func Test_Load_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{{
		name: "not yaml",
		raw:  "{{{",
	}, {
		name: "unknown field",
		raw:  "spec:\n  bogus: true\n",
	}, {
		name: "no rules",
		raw:  "spec: {}\n",
	}, {
		name: "rule without name",
		raw:  "spec:\n  rules:\n    - mode: Enforce\n",
	}, {
		name: "bad mode",
		raw:  "spec:\n  rules:\n    - name: r\n      mode: Block\n",
	}, {
		name: "attestor with neither keys nor keyless",
		raw:  "spec:\n  rules:\n    - name: r\n      attestors:\n        - entries:\n            - repositories: [\"a/*\"]\n",
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, engineapi.IsConfigError(err))
		})
	}
}

func Test_Compile_TTLInvariant(t *testing.T) {
	policy, err := Load(policyYAML)
	require.NoError(t, err)

	// TTL within the scan max age is accepted
	compiled, err := Compile(policy, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "v1", compiled.Version())

	// TTL beyond the scan max age must refuse to start
	_, err = Compile(policy, 48*time.Hour)
	require.Error(t, err)
	assert.True(t, engineapi.IsConfigError(err))
	assert.Contains(t, err.Error(), "cache TTL")
}

func Test_Compile_Version(t *testing.T) {
	policy := &v1alpha1.Policy{
		Spec: v1alpha1.PolicySpec{
			Rules: []v1alpha1.Rule{{Name: "r", AllowedRegistries: []string{"ghcr.io/*"}}},
		},
	}
	compiled, err := Compile(policy, 0)
	require.NoError(t, err)
	version := compiled.Version()
	assert.NotEmpty(t, version)

	// an edit produces a new derived version
	policy.Spec.Rules[0].AllowedRegistries = []string{"docker.io/*"}
	edited, err := Compile(policy, 0)
	require.NoError(t, err)
	assert.NotEqual(t, version, edited.Version())
}

func Test_Compile_InvalidGlob(t *testing.T) {
	policy := &v1alpha1.Policy{
		Spec: v1alpha1.PolicySpec{
			Rules: []v1alpha1.Rule{{
				Name:  "r",
				Match: v1alpha1.MatchResources{ImageGlobs: []string{"[bad"}},
			}},
		},
	}
	_, err := Compile(policy, 0)
	require.Error(t, err)
	assert.True(t, engineapi.IsConfigError(err))
}

func Test_CompiledRule_Matching(t *testing.T) {
	policy := &v1alpha1.Policy{
		Spec: v1alpha1.PolicySpec{
			Version: "v1",
			Rules: []v1alpha1.Rule{{
				Name: "r",
				Match: v1alpha1.MatchResources{
					Namespaces: []string{"prod-*"},
					Kinds:      []string{"Pod"},
					ImageGlobs: []string{"ghcr.io/myorg/*"},
				},
			}},
		},
	}
	compiled, err := Compile(policy, 0)
	require.NoError(t, err)
	rule := compiled.Rules()[0]

	assert.True(t, rule.MatchesRequest("prod-payments", "Pod"))
	assert.False(t, rule.MatchesRequest("staging", "Pod"))
	assert.False(t, rule.MatchesRequest("prod-payments", "Deployment"))
	assert.True(t, rule.MatchesImage("ghcr.io/myorg/myapp:v2"))
	assert.False(t, rule.MatchesImage("docker.io/library/nginx:latest"))
}

func Test_Store(t *testing.T) {
	store := NewStore()
	assert.Nil(t, store.Get())

	policy := &v1alpha1.Policy{
		ObjectMeta: metav1.ObjectMeta{Name: "default"},
		Spec: v1alpha1.PolicySpec{
			Version: "v1",
			Rules:   []v1alpha1.Rule{{Name: "r"}},
		},
	}
	compiled, err := Compile(policy, 0)
	require.NoError(t, err)
	store.Set(compiled)
	assert.Same(t, compiled, store.Get())

	policy.Spec.Version = "v2"
	next, err := Compile(policy, 0)
	require.NoError(t, err)
	store.Set(next)
	assert.Same(t, next, store.Get())
}
