package eventbus

import (
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	sub := bus.Subscribe()
	bus.Publish("hello")

	select {
	case got := <-sub:
		if got != "hello" {
			t.Fatalf("got %v, want hello", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusFanOut(t *testing.T) {
	bus := New()
	defer bus.Close()

	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Publish(42)

	for _, sub := range []<-chan Event{a, b} {
		select {
		case got := <-sub:
			if got != 42 {
				t.Fatalf("got %v, want 42", got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := New()
	defer bus.Close()

	sub := bus.Subscribe()
	// Overfill the subscriber buffer; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			bus.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if len(sub) == 0 {
		t.Fatal("expected buffered events")
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()
	bus.Close()

	if _, ok := <-sub; ok {
		t.Fatal("expected closed channel after Close")
	}
	// Publishing after Close is a no-op, not a panic.
	bus.Publish("late")
}

func TestBusUnsubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	sub := bus.Subscribe()
	bus.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("expected closed channel after Unsubscribe")
	}
}

func TestBusSubscribeAfterClose(t *testing.T) {
	bus := New()
	bus.Close()
	sub := bus.Subscribe()
	if _, ok := <-sub; ok {
		t.Fatal("expected closed channel when subscribing after Close")
	}
}
