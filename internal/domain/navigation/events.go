package navigation

import "sync"

// NavigatedEvent is emitted once per navigation attempt when it reaches a
// terminal phase.
type NavigatedEvent struct {
	Context  *Context
	Canceled bool
	Err      error
}

// Listener receives Navigated notifications
type Listener func(NavigatedEvent)

type subscription struct {
	id uint64
	fn Listener
}

// broadcaster delivers events synchronously, in subscription order, with no
// replay for late subscribers.
type broadcaster struct {
	mu   sync.RWMutex
	next uint64
	subs []subscription
}

func (b *broadcaster) subscribe(fn Listener) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *broadcaster) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// listeners returns a snapshot so delivery happens outside the lock
func (b *broadcaster) listeners() []Listener {
	b.mu.RLock()
	defer b.mu.RUnlock()

	fns := make([]Listener, len(b.subs))
	for i, s := range b.subs {
		fns[i] = s.fn
	}
	return fns
}

func (b *broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
