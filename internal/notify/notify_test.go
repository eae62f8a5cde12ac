package notify

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLog() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestNewEvent(t *testing.T) {
	evt := NewEvent(ClassStarted, 42)
	assert.Equal(t, ClassStarted, evt.Kind)
	assert.Equal(t, int64(42), evt.ClassID)
	assert.NotZero(t, evt.ID)
	assert.False(t, evt.At.IsZero())
}

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(8, testLog())

	got := make(chan Event, 1)
	bus.Subscribe(func(evt Event) { got <- evt })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	bus.Publish(NewEvent(ClassEnded, 7))

	select {
	case evt := <-got:
		assert.Equal(t, ClassEnded, evt.Kind)
		assert.Equal(t, int64(7), evt.ClassID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := NewBus(1, testLog())
	// No Run loop draining: the second publish must drop, not block.
	bus.Publish(NewEvent(ClassStarted, 1))
	bus.Publish(NewEvent(ClassStarted, 2))
	assert.Equal(t, int64(1), bus.Dropped())
}

func TestBusRunStopsOnCancel(t *testing.T) {
	bus := NewBus(1, testLog())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		bus.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
