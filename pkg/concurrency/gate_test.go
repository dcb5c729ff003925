package concurrency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGate(t *testing.T) {
	g := NewGate(false)
	assert.False(t, g.Open())

	assert.True(t, g.Resume())
	assert.False(t, g.Resume())
	assert.True(t, g.Open())

	assert.True(t, g.Pause())
	assert.False(t, g.Pause())
	assert.False(t, g.Open())
}

func TestGate_WaitUnblocksOnResume(t *testing.T) {
	g := NewGate(false)

	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait returned while the gate was closed")
	case <-time.After(20 * time.Millisecond):
	}

	g.Resume()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Resume")
	}
}
