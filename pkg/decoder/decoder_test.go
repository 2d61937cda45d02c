package decoder

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerStartStop(t *testing.T) {
	r := NewRunner()
	started := make(chan struct{})
	r.Start(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	assert.True(t, r.Running())

	// second start is ignored while running
	r.Start(func(ctx context.Context) error { t.Error("started twice"); return nil })

	r.Stop()
	assert.False(t, r.Running())
	r.Stop()

	select {
	case err := <-r.Err():
		t.Errorf("cancel is not an error: %v", err)
	default:
	}
}

func TestRunnerError(t *testing.T) {
	r := NewRunner()
	boom := errors.New("boom")
	r.Start(func(context.Context) error { return boom })

	select {
	case err := <-r.Err():
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("no error")
	}
	require.Eventually(t, func() bool { return !r.Running() }, time.Second, time.Millisecond)

	ran := make(chan struct{})
	r.Start(func(context.Context) error { close(ran); return nil })
	<-ran
}

func TestRunnerPause(t *testing.T) {
	r := NewRunner()
	assert.False(t, r.Paused())
	r.Pause(true)
	assert.True(t, r.Paused())
}

func TestValidPosition(t *testing.T) {
	for _, p := range []float64{0, 0.5, 1} {
		assert.True(t, ValidPosition(p), p)
	}
	for _, p := range []float64{-0.1, 1.01, math.NaN()} {
		assert.False(t, ValidPosition(p), p)
	}
}
