package task

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// counterMsg is the protocol of the test counter service: increments are
// fire-and-forget, reads carry a private reply channel.
type counterMsg struct {
	inc int
	get *Reply[int]
}

func spawnCounter(t *testing.T) *TaskHandle[counterMsg] {
	t.Helper()
	return Spawn(Options{Context: context.Background()}, func(tc *Context[counterMsg]) {
		count := 0
		for {
			m, err := tc.Recv()
			if err != nil {
				return
			}
			if m.get != nil {
				m.get.Send(count)
				continue
			}
			count += m.inc
		}
	})
}

func TestCall_returns_response(t *testing.T) {
	h := spawnCounter(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, Cast[counterMsg](h, counterMsg{inc: 1}))
	}

	// Single consumer: the casts above are processed before the call.
	count, err := Call(context.Background(), h, func(r Reply[int]) counterMsg {
		return counterMsg{get: &r}
	})
	require.NoError(t, err)
	require.Equal(t, 3, count)

	_, err = h.Shutdown(context.Background(), time.Second)
	require.NoError(t, err)
}

func TestCall_timeout_and_late_reply_isolation(t *testing.T) {
	type slowMsg struct {
		delay time.Duration
		reply Reply[int]
	}

	h := Spawn(Options{Context: context.Background()}, func(tc *Context[slowMsg]) {
		for {
			m, err := tc.Recv()
			if err != nil {
				return
			}
			time.Sleep(m.delay)
			m.reply.Send(1)
		}
	})

	_, err := Call(context.Background(), h, func(r Reply[int]) slowMsg {
		return slowMsg{delay: 300 * time.Millisecond, reply: r}
	}, WithCallTimeout(50*time.Millisecond))
	require.ErrorIs(t, err, ErrCallTimeout)

	// The late reply lands on the first call's private channel; a
	// subsequent unrelated call is unaffected.
	v, err := Call(context.Background(), h, func(r Reply[int]) slowMsg {
		return slowMsg{reply: r}
	}, WithCallTimeout(2*time.Second))
	require.NoError(t, err)
	require.Equal(t, 1, v)

	h.Kill()
}

func TestCall_channel_closed(t *testing.T) {
	type declineMsg struct{ reply Reply[int] }

	h := Spawn(Options{Context: context.Background()}, func(tc *Context[declineMsg]) {
		for {
			m, err := tc.Recv()
			if err != nil {
				return
			}
			m.reply.Close()
		}
	})

	_, err := Call(context.Background(), h, func(r Reply[int]) declineMsg {
		return declineMsg{reply: r}
	})
	require.ErrorIs(t, err, ErrCallClosed)

	h.Kill()
}

func TestCall_send_error_when_task_gone(t *testing.T) {
	h := spawnCounter(t)
	_, err := h.Shutdown(context.Background(), time.Second)
	require.NoError(t, err)

	_, err = Call(context.Background(), h, func(r Reply[int]) counterMsg {
		return counterMsg{get: &r}
	})
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestCall_concurrent_callers_are_independent(t *testing.T) {
	type echoMsg struct {
		v     int
		reply Reply[string]
	}

	h := Spawn(Options{Context: context.Background()}, func(tc *Context[echoMsg]) {
		for {
			m, err := tc.Recv()
			if err != nil {
				return
			}
			m.reply.Send(fmt.Sprintf("v=%d", m.v))
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := Call(context.Background(), h, func(r Reply[string]) echoMsg {
				return echoMsg{v: i, reply: r}
			})
			if err != nil {
				t.Errorf("call %d: %v", i, err)
				return
			}
			if want := fmt.Sprintf("v=%d", i); got != want {
				t.Errorf("call %d: got %q, want %q", i, got, want)
			}
		}(i)
	}
	wg.Wait()

	_, err := h.Shutdown(context.Background(), time.Second)
	require.NoError(t, err)
}

func TestCast_is_fire_and_forget(t *testing.T) {
	got := make(chan int, 1)
	h := Spawn(Options{Context: context.Background()}, func(tc *Context[int]) {
		v, err := tc.Recv()
		if err == nil {
			got <- v
		}
	})

	require.NoError(t, Cast[int](h, 42))

	select {
	case v := <-got:
		require.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("cast never arrived")
	}
}

func TestReply_is_single_use(t *testing.T) {
	r := newReply[int]()
	r.Send(1)
	r.Send(2) // no effect
	r.Close() // no effect

	v, ok := <-r.ch
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = <-r.ch
	require.False(t, ok)

	r2 := newReply[int]()
	r2.Close()
	r2.Send(3) // no effect after decline

	_, ok = <-r2.ch
	require.False(t, ok)
}
