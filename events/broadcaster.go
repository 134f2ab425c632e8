// Package events fans task-change notifications out to any number of
// in-process subscribers. Delivery is best-effort: a mutation's success
// never depends on a subscriber draining its queue.
package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// subscriberBuffer is each subscriber's queue depth. A subscriber that
// falls further behind loses events instead of stalling Broadcast.
const subscriberBuffer = 16

// Event is one task-change notification as published on the wire.
type Event struct {
	Event  string `json:"event"`
	Action string `json:"action"`
	TaskID int64  `json:"task_id,omitempty"`
	Task   string `json:"task,omitempty"`
	Data   string `json:"data,omitempty"`
}

// Encode renders the event as its JSON wire payload.
func (e Event) Encode() string {
	payload, err := json.Marshal(e)
	if err != nil {
		// Event has no unmarshalable fields; keep the stream alive anyway.
		return fmt.Sprintf(`{"event":%q,"action":%q}`, e.Event, e.Action)
	}
	return string(payload)
}

// Subscription is one registered listener. Receive from C until it is
// closed; call Close to disconnect.
type Subscription struct {
	C <-chan string

	b    *Broadcaster
	ch   chan string
	once sync.Once
}

// Close removes the subscription from the registry and closes C. It is
// idempotent and safe to call concurrently with Broadcast.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.mu.Lock()
		delete(s.b.subs, s)
		s.b.mu.Unlock()
		close(s.ch)
	})
}

// Broadcaster owns the subscriber registry. Create one per process and
// tear it down with the process; it is the only shared mutable state
// between concurrent requests besides the database.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*Subscription]struct{}),
	}
}

// Register creates a fresh subscription with its own delivery queue.
// The subscriber observes every event broadcast after this call and
// nothing from before it; there is no history replay.
func (b *Broadcaster) Register() *Subscription {
	sub := &Subscription{
		b:  b,
		ch: make(chan string, subscriberBuffer),
	}
	sub.C = sub.ch

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Broadcast queues event for every subscriber registered at the moment
// of the call. Per subscriber the queue is FIFO; a full queue drops the
// event for that subscriber only. Broadcast never blocks on a slow
// subscriber and never fails the caller.
func (b *Broadcaster) Broadcast(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			log.Warn().Str("event", event).Msg("dropping event for slow subscriber")
		}
	}
}

// Subscribers reports the current registry size.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
