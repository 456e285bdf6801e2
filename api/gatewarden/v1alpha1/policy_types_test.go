package v1alpha1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

func Test_Policy_Validate(t *testing.T) {
	validRule := Rule{
		Name:              "allow-harbor",
		AllowedRegistries: []string{"harbor.example.com/*"},
	}
	testCases := []struct {
		name      string
		policy    Policy
		wantError string
	}{{
		name:   "valid",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{validRule}}},
	}, {
		name:      "no rules",
		policy:    Policy{},
		wantError: "spec.rules",
	}, {
		name: "missing rule name",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{
			{AllowedRegistries: []string{"*"}},
		}}},
		wantError: "spec.rules[0].name",
	}, {
		name: "duplicate rule name",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{
			validRule,
			validRule,
		}}},
		wantError: "spec.rules[1].name",
	}, {
		name: "bad mode",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{
			{Name: "r", Mode: ValidationMode("Warn")},
		}}},
		wantError: "spec.rules[0].mode",
	}, {
		name: "negative scan max age",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{
			{Name: "r", Scan: &ScanRequirement{MaxAge: metav1.Duration{Duration: -time.Hour}}},
		}}},
		wantError: "spec.rules[0].scan.maxAge",
	}, {
		name: "bad scan severity",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{
			{Name: "r", Scan: &ScanRequirement{MaxAge: metav1.Duration{Duration: time.Hour}, MaxSeverity: "SEVERE"}}},
		}},
		wantError: "spec.rules[0].scan.maxSeverity",
	}, {
		name: "empty attestor set",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{
			{Name: "r", Attestors: []AttestorSet{{}}},
		}}},
		wantError: "spec.rules[0].attestors[0].entries",
	}, {
		name: "count above entries",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{
			{Name: "r", Attestors: []AttestorSet{{
				Count: ptr(3),
				Entries: []Attestor{
					{Keyless: &KeylessAttestor{Subject: "*", Issuer: "https://issuer"}},
				},
			}}},
		}}},
		wantError: "spec.rules[0].attestors[0].count",
	}, {
		name: "attestor with both keys and keyless",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{
			{Name: "r", Attestors: []AttestorSet{{
				Entries: []Attestor{{
					Keys:    &KeyAttestor{PublicKeys: "pem"},
					Keyless: &KeylessAttestor{Subject: "*", Issuer: "https://issuer"},
				}},
			}}},
		}}},
		wantError: "spec.rules[0].attestors[0].entries[0]",
	}, {
		name: "keyless without issuer",
		policy: Policy{Spec: PolicySpec{Rules: []Rule{
			{Name: "r", Attestors: []AttestorSet{{
				Entries: []Attestor{{
					Keyless: &KeylessAttestor{Subject: "*"},
				}},
			}}},
		}}},
		wantError: "spec.rules[0].attestors[0].entries[0].keyless.issuer",
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.policy.Validate()
			if tc.wantError == "" {
				assert.Empty(t, errs)
				return
			}
			assert.True(t, hasFieldError(errs, tc.wantError), "expected an error on field %s, got %v", tc.wantError, errs)
		})
	}
}

func Test_Rule_Defaults(t *testing.T) {
	rule := Rule{}
	assert.Equal(t, Enforce, rule.GetMode())
	assert.True(t, rule.RequiresDigest())

	rule.Mode = Audit
	rule.RequireDigest = ptr(false)
	assert.Equal(t, Audit, rule.GetMode())
	assert.False(t, rule.RequiresDigest())
}

func Test_AttestorSet_RequiredCount(t *testing.T) {
	set := AttestorSet{Entries: []Attestor{{}, {}, {}}}
	assert.Equal(t, 1, set.RequiredCount())
	set.Count = ptr(0)
	assert.Equal(t, 1, set.RequiredCount())
	set.Count = ptr(2)
	assert.Equal(t, 2, set.RequiredCount())
}

func hasFieldError(errs field.ErrorList, fieldPath string) bool {
	for _, err := range errs {
		if err.Field == fieldPath {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T {
	return &v
}
