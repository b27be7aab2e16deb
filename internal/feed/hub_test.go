package feed

import (
	"testing"

	"github.com/vovakirdan/portfolio-server/internal/store"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	sub := store.Submission{ID: "1", Name: "Ann"}
	if n := hub.Publish(sub); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}

	for i, ch := range []<-chan store.Submission{a, b} {
		select {
		case got := <-ch:
			if got != sub {
				t.Errorf("subscriber %d: expected %+v, got %+v", i, sub, got)
			}
		default:
			t.Errorf("subscriber %d: nothing delivered", i)
		}
	}
}

func TestCancelUnsubscribes(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	if hub.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Subscribers())
	}

	cancel()
	cancel()

	if hub.Subscribers() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", hub.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	if n := hub.Publish(store.Submission{ID: "x"}); n != 0 {
		t.Errorf("expected no deliveries, got %d", n)
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer; i++ {
		if n := hub.Publish(store.Submission{ID: "fill"}); n != 1 {
			t.Fatalf("expected delivery %d to succeed", i)
		}
	}
	if n := hub.Publish(store.Submission{ID: "overflow"}); n != 0 {
		t.Fatalf("expected overflow to be dropped, got %d deliveries", n)
	}
}

func TestCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()

	hub.Close()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	late, _ := hub.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("expected subscription after close to be closed")
	}
	if n := hub.Publish(store.Submission{ID: "x"}); n != 0 {
		t.Errorf("expected no deliveries after close, got %d", n)
	}
}
