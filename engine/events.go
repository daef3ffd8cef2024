package engine

import "sync"

// Event is published on a Bus when session state changes.
type Event interface {
	isEvent()
}

// PageLoaded is published after a fetched KeyPage has been applied.
type PageLoaded struct {
	Page KeyPage
}

// SearchFailed is published when a debounced search could not be applied.
type SearchFailed struct {
	Pattern string
	Err     error
}

// KeysDeleted lists keys a mutation asked to remove.
type KeysDeleted struct {
	Requested []string
	Deleted   []string
}

// DetailLoaded is published after a key's details were loaded or found missing.
type DetailLoaded struct {
	State DetailState
}

func (PageLoaded) isEvent()   {}
func (SearchFailed) isEvent() {}
func (KeysDeleted) isEvent()  {}
func (DetailLoaded) isEvent() {}

type subscriber struct {
	id int
	fn func(Event)
}

// Bus delivers events synchronously, in subscription order, on the
// publisher's goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}
