package lane

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_ReturnsValueAndError(t *testing.T) {
	l := New("test", 2)
	v, err := Do(context.Background(), l, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	_, err = Do(context.Background(), l, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestDo_BoundsConcurrency(t *testing.T) {
	l := New("bounded", 2)
	var cur, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = Run(context.Background(), l, func() error {
				n := cur.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				cur.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.Equal(t, 0, l.Busy())
}

func TestDo_PanicBecomesError(t *testing.T) {
	l := New("panicky", 1)
	_, err := Do(context.Background(), l, func() (string, error) { panic("kaboom") })
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "panicky", pe.Lane)
	assert.Equal(t, "kaboom", pe.Value)

	// the worker slot is released after a panic
	v, err := Do(context.Background(), l, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestDo_CallerStopsWaitingOnCancel(t *testing.T) {
	l := New("slow", 1)
	release := make(chan struct{})
	finished := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, l, func() (int, error) {
		<-release
		close(finished)
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	// work keeps running in the background and still holds the worker
	assert.Eventually(t, func() bool { return l.Busy() == 1 }, time.Second, time.Millisecond)
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("background work did not finish")
	}
	assert.Eventually(t, func() bool { return l.Busy() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDo_CanceledBeforeAcquire(t *testing.T) {
	l := New("full", 1)
	block := make(chan struct{})
	go func() { _ = Run(context.Background(), l, func() error { <-block; return nil }) }()
	assert.Eventually(t, func() bool { return l.Busy() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ran := false
	err := Run(ctx, l, func() error { ran = true; return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)
	close(block)
}

func TestNew_MinimumOneWorker(t *testing.T) {
	l := New("zero", 0)
	assert.Equal(t, 1, l.Workers())
	assert.Equal(t, "zero", l.Name())
}
