package group

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/H1ghBre4k3r/notizia/core/task"
)

func drain(tc *task.Context[string]) {
	for {
		if _, err := tc.Recv(); err != nil {
			return
		}
	}
}

func newTestGroup(t *testing.T, spawns *atomic.Int32) *Group[string] {
	t.Helper()
	return New(Options{}, func(key string) *task.TaskHandle[string] {
		if spawns != nil {
			spawns.Add(1)
		}
		return task.Spawn(task.Options{
			Context: context.Background(),
			ID:      "member-" + key,
		}, drain)
	})
}

func TestGroup_get_spawns_once_per_key(t *testing.T) {
	var spawns atomic.Int32
	g := newTestGroup(t, &spawns)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := g.Get("a")
			if err != nil {
				t.Error(err)
				return
			}
			ref.Release()
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), spawns.Load())
	require.Equal(t, 1, g.Len())

	_, err := g.Get("b")
	require.NoError(t, err)
	require.Equal(t, int32(2), spawns.Load())
	require.Equal(t, 2, g.Len())
	require.ElementsMatch(t, []string{"a", "b"}, g.Keys())
}

func TestGroup_lookup(t *testing.T) {
	g := newTestGroup(t, nil)

	_, ok := g.Lookup("a")
	require.False(t, ok)

	_, err := g.Get("a")
	require.NoError(t, err)

	ref, ok := g.Lookup("a")
	require.True(t, ok)
	require.NoError(t, ref.Send("hello"))
	ref.Release()
}

func TestGroup_remove_hands_over_handle(t *testing.T) {
	g := newTestGroup(t, nil)

	_, err := g.Get("a")
	require.NoError(t, err)

	h, ok := g.Remove("a")
	require.True(t, ok)
	require.Equal(t, 0, g.Len())

	_, ok = g.Remove("a")
	require.False(t, ok)

	reason, err := h.Shutdown(context.Background(), time.Second)
	require.NoError(t, err)
	require.False(t, reason.IsPanic())
}

func TestGroup_shutdown_stops_members_and_closes(t *testing.T) {
	g := newTestGroup(t, nil)

	for _, key := range []string{"a", "b", "c"} {
		ref, err := g.Get(key)
		require.NoError(t, err)
		// Live refs would keep the members' channels open past the
		// shutdown deadline.
		ref.Release()
	}

	require.NoError(t, g.Shutdown(context.Background(), time.Second))
	require.Equal(t, 0, g.Len())

	_, err := g.Get("d")
	require.ErrorIs(t, err, ErrClosed)

	require.ErrorIs(t, g.Shutdown(context.Background(), time.Second), ErrClosed)
}
