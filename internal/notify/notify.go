// Package notify fans class lifecycle events out to interested listeners
// over an explicit channel instead of a process-global emitter.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an event.
type Kind string

const (
	ClassStarted Kind = "class.started"
	ClassPaused  Kind = "class.paused"
	ClassResumed Kind = "class.resumed"
	ClassEnded   Kind = "class.ended"
)

// Event is one class lifecycle notification.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Kind    Kind      `json:"kind"`
	ClassID int64     `json:"class_id"`
	At      time.Time `json:"at"`
}

// NewEvent stamps an event with a fresh ID and timestamp.
func NewEvent(kind Kind, classID int64) Event {
	return Event{ID: uuid.New(), Kind: kind, ClassID: classID, At: time.Now()}
}

// Bus delivers events to subscribers. Publishing never blocks the caller:
// when the buffer is full the event is dropped and counted, since live
// class control flow must not stall on a slow listener.
type Bus struct {
	log *slog.Logger
	ch  chan Event

	mu      sync.Mutex
	subs    []func(Event)
	dropped int64
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int, log *slog.Logger) *Bus {
	if buffer < 1 {
		buffer = 64
	}
	return &Bus{log: log, ch: make(chan Event, buffer)}
}

// Subscribe registers a listener invoked for every delivered event.
// Listeners run on the bus goroutine and should return quickly.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish enqueues an event, dropping it if the buffer is full.
func (b *Bus) Publish(evt Event) {
	select {
	case b.ch <- evt:
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.log.Warn("notify buffer full, dropping event", "kind", evt.Kind, "class_id", evt.ClassID)
	}
}

// Dropped reports how many events were discarded on a full buffer.
func (b *Bus) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Run delivers events until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-b.ch:
			b.log.Info("class event", "kind", evt.Kind, "class_id", evt.ClassID, "event_id", evt.ID)
			b.mu.Lock()
			subs := append([]func(Event){}, b.subs...)
			b.mu.Unlock()
			for _, fn := range subs {
				fn(evt)
			}
		}
	}
}
