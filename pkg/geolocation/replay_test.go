package geolocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayLocator_EmitsPathInOrder(t *testing.T) {
	path := orb.LineString{{0, 0}, {0, 0.001}, {0, 0.002}}
	r := NewReplayLocator(path, 5*time.Millisecond)
	ctx := context.Background()

	state, err := r.RequestPermissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, state)

	first, err := r.CurrentPosition(ctx, HighAccuracy())
	require.NoError(t, err)
	assert.Equal(t, path[0], first.Position)

	var mu sync.Mutex
	var got orb.LineString
	done := make(chan struct{})
	id, err := r.WatchPosition(ctx, HighAccuracy(), func(s Sample) {
		mu.Lock()
		got = append(got, s.Position)
		if len(got) == len(path) {
			close(done)
		}
		mu.Unlock()
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replay did not finish")
	}

	require.NoError(t, r.ClearWatch(ctx, id))
	assert.Equal(t, 0, r.ActiveWatches())
	assert.Equal(t, path, got)
}

func TestReplayLocator_EmptyPath(t *testing.T) {
	r := NewReplayLocator(nil, time.Second)
	_, err := r.CurrentPosition(context.Background(), HighAccuracy())
	assert.ErrorIs(t, err, ErrPositionUnavailable)
}
