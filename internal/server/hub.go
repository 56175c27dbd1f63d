package server

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/diogo/advisor/internal/models"
	"github.com/diogo/advisor/internal/orchestrator"
	"github.com/diogo/advisor/internal/transcript"
)

// Event types sent over /api/events
const (
	EventSnapshot = "snapshot"
	EventState    = "state"
	EventAlert    = "alert"
)

// clientBuffer is how many events a slow client may lag behind before it is dropped
const clientBuffer = 32

// Event is one message on the event stream
type Event struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// MessageView is the wire form of a transcript message
type MessageView struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// TranscriptView is the body of GET /api/transcript and of snapshot events
type TranscriptView struct {
	Version  uint64        `json:"version"`
	Messages []MessageView `json:"messages"`
	Loading  bool          `json:"loading"`
}

// StateView is the data of a state event
type StateView struct {
	State   string `json:"state"`
	Loading bool   `json:"loading"`
}

// AlertView is the data of an alert event
type AlertView struct {
	Message string `json:"message"`
}

func newEvent(eventType string, data any) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().Unix()}
}

// newTranscriptView reports loading from the snapshot's own Pending flag
func newTranscriptView(snap transcript.Snapshot) TranscriptView {
	msgs := make([]MessageView, len(snap.Messages))
	for i, m := range snap.Messages {
		msgs[i] = messageView(m, snap.IsPending(i))
	}
	return TranscriptView{Version: snap.Version, Messages: msgs, Loading: snap.Pending}
}

func messageView(m models.Message, pending bool) MessageView {
	return MessageView{
		Role:        m.Role.String(),
		Content:     m.Content,
		Placeholder: pending,
	}
}

type subscriber struct {
	send chan Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub fans events out to every connected event-stream client.
// It is the orchestrator's Alerter and state observer in server mode, and
// the transcript store's observer, so all events share one order.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	latest *Event
	seen   uint64
	closed bool
	logger *log.Logger
}

// NewHub creates an empty hub
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		logger: logger,
	}
}

// Alert implements orchestrator.Alerter
func (h *Hub) Alert(message string) {
	h.Broadcast(newEvent(EventAlert, AlertView{Message: message}))
}

// PublishState is passed to orchestrator.WithStateObserver
func (h *Hub) PublishState(s orchestrator.State) {
	h.Broadcast(newEvent(EventState, StateView{
		State:   s.String(),
		Loading: s != orchestrator.StateIdle,
	}))
}

// PublishSnapshot is passed to transcript.Store.Observe. Snapshots older than
// the last one published are ignored. The newest snapshot is also queued for
// every client that registers later.
func (h *Hub) PublishSnapshot(snap transcript.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.latest != nil && snap.Version <= h.seen {
		return
	}
	ev := newEvent(EventSnapshot, newTranscriptView(snap))
	h.latest = &ev
	h.seen = snap.Version
	h.broadcastLocked(ev)
}

// Broadcast queues ev for every client. Clients whose buffer is full are
// disconnected rather than blocking the caller.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(ev)
}

func (h *Hub) broadcastLocked(ev Event) {
	for sub := range h.subs {
		select {
		case sub.send <- ev:
		default:
			h.logger.Printf("[server] dropping slow event client")
			delete(h.subs, sub)
			sub.close()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) register() *subscriber {
	sub := &subscriber{send: make(chan Event, clientBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.close()
		return sub
	}
	if h.latest != nil {
		sub.send <- *h.latest
	}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

// closeAll disconnects every client and refuses later ones
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.close()
	}
}
