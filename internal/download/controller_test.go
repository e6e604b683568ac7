package download

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Lifecycle(t *testing.T) {
	c := NewController(context.Background())
	assert.Equal(t, StateRunning, c.State())
	assert.NoError(t, c.Context().Err())

	assert.True(t, c.Cancel())
	assert.Equal(t, StateCancelling, c.State())
	assert.Error(t, c.Context().Err())
	assert.True(t, c.Cancelled())

	assert.False(t, c.Cancel(), "second cancel has no effect")
	assert.Equal(t, StateCancelling, c.State())

	c.Stop()
	assert.Equal(t, StateStopped, c.State())
	assert.False(t, c.Cancel(), "stopped runs cannot be cancelled")
}

func TestController_StopWithoutCancel(t *testing.T) {
	c := NewController(context.Background())
	c.Stop()

	assert.Equal(t, StateStopped, c.State())
	assert.False(t, c.Cancelled())
	assert.Error(t, c.Context().Err(), "context is released on stop")
}

func TestController_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	c := NewController(parent)
	defer c.Stop()

	cancel()
	require.Eventually(t, c.Cancelled, time.Second, time.Millisecond)
	assert.Equal(t, StateCancelling, c.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "cancelling", StateCancelling.String())
	assert.Equal(t, "stopped", StateStopped.String())
}
