package eventbus

import (
	"testing"
	"time"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := New(4)
	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Publish("hello")
	if v := <-a.C; v != "hello" {
		t.Fatalf("subscriber a got %v", v)
	}
	if v := <-b.C; v != "hello" {
		t.Fatalf("subscriber b got %v", v)
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := New(1)
	sub := bus.Subscribe()
	bus.Publish(1)
	done := make(chan struct{})
	go func() {
		bus.Publish(2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	if v := <-sub.C; v != 1 {
		t.Fatalf("got %v, want the first event", v)
	}
	select {
	case v := <-sub.C:
		t.Fatalf("unexpected buffered event %v", v)
	default:
	}
}

func TestSubscriptionCancelStopsDelivery(t *testing.T) {
	bus := New(4)
	sub := bus.Subscribe()
	keep := bus.Subscribe()
	sub.Cancel()
	if _, ok := <-sub.C; ok {
		t.Fatal("canceled channel still open")
	}
	bus.Publish("x")
	if v := <-keep.C; v != "x" {
		t.Fatalf("remaining subscriber got %v", v)
	}
	sub.Cancel()
}

func TestBusCloseClosesSubscribers(t *testing.T) {
	bus := New(4)
	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Close()
	if _, ok := <-a.C; ok {
		t.Fatal("expected a closed")
	}
	if _, ok := <-b.C; ok {
		t.Fatal("expected b closed")
	}
	bus.Publish("late")
	late := bus.Subscribe()
	if _, ok := <-late.C; ok {
		t.Fatal("subscription on a closed bus should be closed")
	}
	late.Cancel()
}
