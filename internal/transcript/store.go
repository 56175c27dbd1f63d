// Package transcript holds the ordered chat transcript shown to the user.
package transcript

import (
	"sync"

	"github.com/diogo/advisor/internal/models"
)

// Snapshot is an immutable view of the transcript after one mutation.
// Pending is true while the trailing message is an unanswered placeholder.
type Snapshot struct {
	Version  uint64
	Messages []models.Message
	Pending  bool
}

// Len returns the number of messages in the snapshot
func (s Snapshot) Len() int {
	return len(s.Messages)
}

// IsPending reports whether message i is the pending placeholder
func (s Snapshot) IsPending(i int) bool {
	return s.Pending && i == len(s.Messages)-1
}

// Store is the single source of truth for the rendered conversation.
// Every mutation is applied under one lock and then published to subscribers.
type Store struct {
	mu          sync.Mutex
	messages    []models.Message
	version     uint64
	pending     bool
	subscribers map[int]chan Snapshot
	observers   map[int]func(Snapshot)
	nextSubID   int
}

// New creates a store seeded with the given messages, typically the greeting
func New(initial ...models.Message) *Store {
	msgs := make([]models.Message, len(initial))
	copy(msgs, initial)
	return &Store{
		messages:    msgs,
		subscribers: make(map[int]chan Snapshot),
		observers:   make(map[int]func(Snapshot)),
	}
}

// Append adds messages in order as a single operation
func (s *Store) Append(msgs ...models.Message) {
	s.append(false, msgs)
}

// AppendPending adds messages in order as a single operation and marks the
// last of them as the placeholder awaiting ReplaceLastWith or DropLast.
func (s *Store) AppendPending(msgs ...models.Message) {
	s.append(true, msgs)
}

func (s *Store) append(pending bool, msgs []models.Message) {
	if len(msgs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Message, 0, len(s.messages)+len(msgs))
	next = append(next, s.messages...)
	next = append(next, msgs...)

	s.messages = next
	s.pending = pending
	s.publishLocked()
}

// ReplaceLastWith swaps the trailing message for msg.
// It returns false and changes nothing when the store is empty.
func (s *Store) ReplaceLastWith(msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return false
	}

	next := make([]models.Message, len(s.messages))
	copy(next, s.messages)
	next[len(next)-1] = msg

	s.messages = next
	s.pending = false
	s.publishLocked()
	return true
}

// DropLast removes the trailing message.
// It returns false and changes nothing when the store is empty.
func (s *Store) DropLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return false
	}

	next := make([]models.Message, len(s.messages)-1)
	copy(next, s.messages)

	s.messages = next
	s.pending = false
	s.publishLocked()
	return true
}

// SnapshotFrom returns a copy of the messages starting at index.
// index is clamped to the valid range.
func (s *Store) SnapshotFrom(index int) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 {
		index = 0
	}
	if index > len(s.messages) {
		index = len(s.messages)
	}

	out := make([]models.Message, len(s.messages)-index)
	copy(out, s.messages[index:])
	return out
}

// Snapshot returns the whole transcript with its version
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of messages
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Last returns the trailing message, if any
func (s *Store) Last() (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return models.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Version returns the number of mutations applied so far
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Pending reports whether the trailing message is an unanswered placeholder
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Subscribe returns a channel receiving a snapshot after every mutation.
// Only the newest undelivered snapshot is kept; slow readers skip versions.
// Call the returned function to unsubscribe.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Snapshot, 1)
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Observe registers fn to be called with every new snapshot, in mutation
// order, on the goroutine that made the change and with the store locked.
// fn must not block or call back into the store.
// Call the returned function to stop observing.
func (s *Store) Observe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
		})
	}
}

func (s *Store) snapshotLocked() Snapshot {
	msgs := make([]models.Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{Version: s.version, Messages: msgs, Pending: s.pending}
}

// publishLocked bumps the version and delivers the new state.
// MUST be called with s.mu held.
func (s *Store) publishLocked() {
	s.version++
	if len(s.subscribers) == 0 && len(s.observers) == 0 {
		return
	}

	snap := s.snapshotLocked()
	for _, fn := range s.observers {
		fn(snap)
	}
	for _, ch := range s.subscribers {
		// Drop the stale snapshot, if any, so the channel never blocks.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
