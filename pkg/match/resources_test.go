package match

import (
	"testing"

	"gotest.tools/assert"
)

func Test_CheckNames(t *testing.T) {
	assert.Assert(t, CheckNames(nil, "prod-payments"))
	assert.Assert(t, CheckNames([]string{"prod-*"}, "prod-payments"))
	assert.Assert(t, CheckNames([]string{"staging", "prod-*"}, "prod-payments"))
	assert.Assert(t, !CheckNames([]string{"staging"}, "prod-payments"))
	assert.Assert(t, CheckName("Pod", "Pod"))
	assert.Assert(t, !CheckName("Pod", "Deployment"))
}

func Test_CheckImage(t *testing.T) {
	globs, err := CompileGlobs([]string{"harbor.example.com/myteam/*"})
	assert.NilError(t, err)
	assert.Assert(t, CheckImage(globs, "harbor.example.com/myteam/myapp:v1"))
	assert.Assert(t, !CheckImage(globs, "docker.io/library/nginx:latest"))

	empty, err := CompileGlobs(nil)
	assert.NilError(t, err)
	assert.Assert(t, CheckImage(empty, "docker.io/library/nginx:latest"))

	_, err = CompileGlobs([]string{"harbor.example.com/[myteam/*"})
	assert.Assert(t, err != nil)
}
