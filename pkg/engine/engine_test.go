package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gatewarden/gatewarden/pkg/logging"
)

func Test_NewEngine_Defaults(t *testing.T) {
	e := NewEngine(&fakeAttestations{}, &fakeScans{})
	assert.Equal(t, logging.GlobalLogger().WithName("engine"), e.logger)
	assert.NotNil(t, e.cache)
	assert.NotNil(t, e.verifier)
	assert.NotNil(t, e.clock)
	assert.Equal(t, 10*time.Second, e.fetchTimeout)
}
