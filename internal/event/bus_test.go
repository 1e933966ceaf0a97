package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBusSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var received Event
	var wg sync.WaitGroup
	wg.Add(1)

	unsub := bus.Subscribe(SessionCreated, func(e Event) {
		received = e
		wg.Done()
	})
	defer unsub()

	bus.Publish(Event{Type: SessionCreated, SessionID: "s1"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if received.Type != SessionCreated {
			t.Errorf("expected SessionCreated, got %v", received.Type)
		}
		if received.SessionID != "s1" {
			t.Errorf("expected session s1, got %q", received.SessionID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int32
	var wg sync.WaitGroup
	wg.Add(3)

	unsub := bus.SubscribeAll(func(e Event) {
		atomic.AddInt32(&count, 1)
		wg.Done()
	})
	defer unsub()

	bus.Publish(Event{Type: SessionCreated})
	bus.Publish(Event{Type: ChunkDelivered})
	bus.Publish(Event{Type: GenerationCompleted})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if got := atomic.LoadInt32(&count); got != 3 {
			t.Errorf("expected 3 events, got %d", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for events")
	}
}

func TestBusPublishSyncPreservesOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got []string
	unsub := bus.Subscribe(ChunkDelivered, func(e Event) {
		got = append(got, e.Data.(string))
	})
	defer unsub()

	for _, chunk := range []string{"a", "b", "c"} {
		bus.PublishSync(Event{Type: ChunkDelivered, Data: chunk})
	}

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("chunks out of order: %v", got)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int32
	unsub := bus.Subscribe(SessionDeleted, func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.PublishSync(Event{Type: SessionDeleted})
	unsub()
	bus.PublishSync(Event{Type: SessionDeleted})

	if got := atomic.LoadInt32(&count); got != 1 {
		t.Errorf("expected 1 delivery, got %d", got)
	}
}

func TestBusClosedDropsEvents(t *testing.T) {
	bus := NewBus()

	var count int32
	bus.Subscribe(SessionCreated, func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.Close()
	bus.PublishSync(Event{Type: SessionCreated})

	if got := atomic.LoadInt32(&count); got != 0 {
		t.Errorf("expected no deliveries after close, got %d", got)
	}
}
