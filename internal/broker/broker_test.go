package broker

import (
	"fmt"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()
	b := New()

	ch, unsub := b.Subscribe("pics", 8)
	defer unsub()

	b.Publish("pics", Event{City: "nyc", Pic: "p1"})

	select {
	case e := <-ch:
		if e.City != "nyc" || e.Pic != "p1" {
			t.Errorf("unexpected event: %+v", e)
		}
		if e.Time.IsZero() {
			t.Error("expected publish time to be stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	t.Parallel()
	b := New()

	ch1, unsub1 := b.Subscribe("pics", 8)
	defer unsub1()
	ch2, unsub2 := b.Subscribe("pics", 8)
	defer unsub2()

	b.Publish("pics", Event{City: "nyc", Pic: "p1"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Pic != "p1" {
				t.Errorf("subscriber %d: unexpected event %+v", i, e)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no event received", i)
		}
	}
}

func TestTopicIsolation(t *testing.T) {
	t.Parallel()
	b := New()

	ch, unsub := b.Subscribe("other", 8)
	defer unsub()

	b.Publish("pics", Event{City: "nyc", Pic: "p1"})

	select {
	case e := <-ch:
		t.Errorf("subscriber of other topic received %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishOrder(t *testing.T) {
	t.Parallel()
	b := New()

	ch, unsub := b.Subscribe("pics", 16)
	defer unsub()

	for i := 0; i < 10; i++ {
		b.Publish("pics", Event{City: "nyc", Pic: fmt.Sprintf("p%d", i)})
	}

	for i := 0; i < 10; i++ {
		select {
		case e := <-ch:
			if want := fmt.Sprintf("p%d", i); e.Pic != want {
				t.Fatalf("event %d: got %s, want %s", i, e.Pic, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	b := New()

	ch, unsub := b.Subscribe("pics", 8)
	unsub()
	// Idempotent.
	unsub()

	b.Publish("pics", Event{City: "nyc", Pic: "p1"})

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after unsubscribe")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()
	b := New()

	// Buffer of 1, never drained.
	_, unsub := b.Subscribe("pics", 1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("pics", Event{City: "nyc", Pic: "p"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on saturated subscriber")
	}
}
