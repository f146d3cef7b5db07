package manager

import (
	"context"
	"sync"
)

// keyedLock serializes operations per key. Entries are dropped once no
// goroutine holds or waits for them.
type keyedLock struct {
	mu sync.Mutex
	m  map[string]*keyEntry
}

type keyEntry struct {
	ch   chan struct{} // size 1: held when full
	refs int
}

func newKeyedLock() *keyedLock { return &keyedLock{m: make(map[string]*keyEntry)} }

// acquire waits for key and returns its release func. On ctx expiry the
// lock is not taken.
func (k *keyedLock) acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e := k.m[key]
	if e == nil {
		e = &keyEntry{ch: make(chan struct{}, 1)}
		k.m[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				k.drop(key, e)
			})
		}, nil
	case <-ctx.Done():
		k.drop(key, e)
		return func() {}, ctx.Err()
	}
}

func (k *keyedLock) drop(key string, e *keyEntry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.m, key)
	}
	k.mu.Unlock()
}

func (k *keyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.m)
}
