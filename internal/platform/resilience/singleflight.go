package resilience

import "sync"

// Flight collapses concurrent loads of the same key into one call.
type Flight[V any] struct {
	mu       sync.Mutex
	inflight map[string]*flightCall[V]
}

type flightCall[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Do runs fn once per key at a time. Callers arriving while a call is in flight wait for it
// and receive its result with shared set to true.
func (f *Flight[V]) Do(key string, fn func() (V, error)) (value V, shared bool, err error) {
	f.mu.Lock()
	if f.inflight == nil {
		f.inflight = make(map[string]*flightCall[V])
	}
	if c, ok := f.inflight[key]; ok {
		f.mu.Unlock()
		<-c.done
		return c.value, true, c.err
	}

	c := &flightCall[V]{done: make(chan struct{})}
	f.inflight[key] = c
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.inflight, key)
		f.mu.Unlock()
		close(c.done)
	}()

	c.value, c.err = fn()
	return c.value, false, c.err
}
