package output_storage

import (
	"errors"
	"testing"
	"time"
)

// recvWithTimeout returns ok=false on timeout or on a closed channel.
func recvWithTimeout[T any](t *testing.T, ch <-chan T, d time.Duration) (T, bool) {
	t.Helper()
	var zero T
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(d):
		return zero, false
	}
}

func assertNoRecv[T any](t *testing.T, ch <-chan T, d time.Duration) {
	t.Helper()
	if v, ok := recvWithTimeout(t, ch, d); ok {
		t.Fatalf("unexpected receive: %v", v)
	}
}

func TestBroadcaster_SubscribersReceiveLatest(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	ch1, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	b.Publish(1)
	if v, ok := recvWithTimeout(t, ch1, 200*time.Millisecond); !ok || v != 1 {
		t.Fatalf("ch1 did not receive initial message, ok=%v v=%d", ok, v)
	}

	ch2, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	b.Publish(2)

	for name, ch := range map[string]chan int{"ch1": ch1, "ch2": ch2} {
		if v, ok := recvWithTimeout(t, ch, 200*time.Millisecond); !ok || v != 2 {
			t.Fatalf("%s did not receive broadcast 2, ok=%v v=%d", name, ok, v)
		}
	}
}

func TestBroadcaster_SlowSubscriberGetsNewestValue(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	slow, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	// Full buffer: the stale value must be replaced, not block the broadcaster.
	slow <- -1
	fast, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish(42)

	if v, ok := recvWithTimeout(t, fast, 200*time.Millisecond); !ok || v != 42 {
		t.Fatalf("fast did not receive 42, ok=%v v=%d", ok, v)
	}
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		v, ok := recvWithTimeout(t, slow, 50*time.Millisecond)
		if ok && v == 42 {
			return
		}
	}
	t.Fatalf("slow subscriber never saw 42")
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	a, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	other, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Fatalf("expected unsubscribed channel to be closed")
	}

	for i := 0; i < 3; i++ {
		b.Publish(100 + i)
		if v, ok := recvWithTimeout(t, other, 200*time.Millisecond); !ok || v != 100+i {
			t.Fatalf("subscriber missed message %d, ok=%v v=%d", 100+i, ok, v)
		}
	}

	// Unsubscribing twice must not close twice.
	b.Unsubscribe(a)
}

func TestBroadcaster_StopClosesSubscribersAndRejectsNewOnes(t *testing.T) {
	b := RunNewBroadcaster[string]()
	ch, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Stop()
	b.Stop()

	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatalf("broadcaster did not finish after Stop")
	}
	for range ch {
	}

	if _, err := b.Subscribe(); !errors.Is(err, ErrBroadcasterStopped) {
		t.Fatalf("expected ErrBroadcasterStopped, got %v", err)
	}
	// Must not panic on a closed receiver.
	b.Publish("late")
}
