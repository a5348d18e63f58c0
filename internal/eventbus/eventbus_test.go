package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New[int]()
	defer bus.Close()
	sub := bus.Subscribe()

	bus.Publish(7)
	select {
	case got := <-sub:
		if got != 7 {
			t.Errorf("got %d, want 7", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := New[int]()
	defer bus.Close()
	_ = bus.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New[string]()
	defer bus.Close()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	// Publishing after unsubscribe must not panic.
	bus.Publish("late")
}

func TestCloseTerminatesSubscribers(t *testing.T) {
	bus := New[string]()
	sub := bus.Subscribe()
	bus.Close()

	if _, ok := <-sub; ok {
		t.Error("channel should be closed")
	}
	if ch := bus.Subscribe(); ch == nil {
		t.Error("subscribe after close should return a closed channel")
	} else if _, ok := <-ch; ok {
		t.Error("post-close subscription should be closed")
	}
	bus.Close() // idempotent
}
