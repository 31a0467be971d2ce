// Package signal provides small observable state containers.
//
// A Signal holds one value and a list of subscribers; every Set notifies them
// synchronously, in subscription order. A Computed derives a value from one or
// more sources, caches it, and only recomputes after a source changed.
//
//	projects := signal.New([]model.Project{})
//	filters := signal.New(model.Filters{})
//	visible := signal.Derive(func() []model.Project {
//	    return apply(projects.Get(), filters.Get())
//	}, projects, filters)
//
// Stores own their signals and expose them read-only (the Readable interface);
// only the owning service calls Set.
package signal

import "sync"

// Source is anything a Computed can depend on.
type Source interface {
	// Version increases every time the value changes.
	Version() uint64
	// OnChange registers a callback fired after each change.
	OnChange(fn func()) (cancel func())
}

// Readable is the read-only face of a Signal or Computed.
type Readable[T any] interface {
	Source
	Get() T
	Subscribe(fn func(T)) (unsubscribe func())
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// subscribers is the shared subscriber list used by Signal and Computed.
type subscribers[T any] struct {
	mu     sync.Mutex
	nextID uint64
	list   []subscriber[T]
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.list = append(s.list, subscriber[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.list {
				if sub.id == id {
					s.list = append(s.list[:i:i], s.list[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *subscribers[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}

// notify calls every subscriber outside the lock, so a subscriber may itself
// subscribe, unsubscribe or read other signals.
func (s *subscribers[T]) notify(v T) {
	s.mu.Lock()
	snapshot := make([]subscriber[T], len(s.list))
	copy(snapshot, s.list)
	s.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn(v)
	}
}

// Signal is a mutable observable value. The zero value is not usable; call New.
type Signal[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	subs    subscribers[T]
}

var _ Readable[int] = (*Signal[int])(nil)

// New creates a Signal holding initial.
func New[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and notifies subscribers.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.version++
	s.mu.Unlock()

	s.subs.notify(v)
}

// Update applies fn to the current value and stores the result atomically
// with respect to other Set/Update calls.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	v := fn(s.value)
	s.value = v
	s.version++
	s.mu.Unlock()

	s.subs.notify(v)
}

// Subscribe registers fn; it is NOT called with the current value.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	return s.subs.add(fn)
}

func (s *Signal[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Signal[T]) OnChange(fn func()) func() {
	return s.subs.add(func(T) { fn() })
}

// Computed is a memoised value derived from other sources.
type Computed[T any] struct {
	mu       sync.Mutex
	fn       func() T
	deps     []Source
	seen     []uint64
	value    T
	valid    bool
	version  uint64
	subs     subscribers[T]
	cancelFn []func()
}

var _ Readable[int] = (*Computed[int])(nil)

// Derive builds a Computed from fn. deps must list every source fn reads;
// reads of anything else are not tracked.
func Derive[T any](fn func() T, deps ...Source) *Computed[T] {
	c := &Computed[T]{
		fn:   fn,
		deps: deps,
		seen: make([]uint64, len(deps)),
	}
	for _, d := range deps {
		c.cancelFn = append(c.cancelFn, d.OnChange(c.dependencyChanged))
	}
	return c
}

// Get returns the cached value, recomputing first if a dependency moved.
func (c *Computed[T]) Get() T {
	v, _ := c.refresh()
	return v
}

// refresh recomputes when stale and reports whether it did.
func (c *Computed[T]) refresh() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stale := !c.valid
	for i, d := range c.deps {
		if v := d.Version(); v != c.seen[i] {
			c.seen[i] = v
			stale = true
		}
	}
	if !stale {
		return c.value, false
	}

	c.value = c.fn()
	c.valid = true
	c.version++
	return c.value, true
}

func (c *Computed[T]) dependencyChanged() {
	// Nobody is watching: stay lazy, the next Get recomputes.
	if c.subs.len() == 0 {
		return
	}
	if v, changed := c.refresh(); changed {
		c.subs.notify(v)
	}
}

// Subscribe registers fn, called with the new value after every recompute
// triggered by a dependency change.
func (c *Computed[T]) Subscribe(fn func(T)) func() {
	return c.subs.add(fn)
}

// Version forces a freshness check so chained Computeds see upstream changes.
func (c *Computed[T]) Version() uint64 {
	c.refresh()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *Computed[T]) OnChange(fn func()) func() {
	return c.subs.add(func(T) { fn() })
}

// Close detaches the Computed from its dependencies.
func (c *Computed[T]) Close() {
	c.mu.Lock()
	cancels := c.cancelFn
	c.cancelFn = nil
	c.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}
