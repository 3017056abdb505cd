package sequencer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDriverTicksAndStops(t *testing.T) {
	rec := &recorder{}
	s := New(threeWaypoints(), identity,
		WithObserver(rec),
		WithLegDuration(5*time.Millisecond),
		WithDwell(time.Millisecond),
		WithLoopPause(time.Millisecond),
	)
	d := NewDriver(s, nil)
	d.Interval = time.Millisecond
	d.StartDelay = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.ids()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop")
	}
	assert.Equal(t, Stopped, s.Snapshot().Mode)
	assert.Equal(t, []int{10, 20, 30}, rec.ids()[:3])
}

func TestDriverCancelDuringStartDelay(t *testing.T) {
	s := New(threeWaypoints(), identity)
	d := NewDriver(s, nil)
	d.StartDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.False(t, s.Running())
}
