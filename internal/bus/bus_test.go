package bus

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()

	done1 := make(chan struct{})
	done2 := make(chan struct{})
	b.Subscribe(func() { close(done1) })
	b.Subscribe(func() { close(done2) })

	b.Publish()

	for _, ch := range []chan struct{}{done1, done2} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber was not notified")
		}
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := New()

	release := make(chan struct{})
	b.Subscribe(func() { <-release })

	start := time.Now()
	b.Publish()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Publish blocked for %v on a slow subscriber", elapsed)
	}
	close(release)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()

	var calls atomic.Int64
	unsubscribe := b.Subscribe(func() { calls.Add(1) })

	b.Publish()
	waitFor(t, func() bool { return calls.Load() == 1 })

	unsubscribe()
	b.Publish()

	// Give a stray goroutine time to fire if deregistration were broken.
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 call after unsubscribe, got %d", got)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New()

	unsubA := b.Subscribe(func() {})
	b.Subscribe(func() {})

	unsubA()
	unsubA()

	if got := b.SubscriberCount(); got != 1 {
		t.Errorf("Expected 1 remaining subscriber, got %d", got)
	}
}

func TestEachPublishTriggersEachSubscriber(t *testing.T) {
	b := New()

	var calls atomic.Int64
	b.Subscribe(func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		b.Publish()
	}

	waitFor(t, func() bool { return calls.Load() == 5 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
