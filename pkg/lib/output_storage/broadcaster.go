package output_storage

import (
	"sync"

	"go.trai.ch/zerr"
)

// ErrBroadcasterStopped is returned by Subscribe once Stop has been called.
var ErrBroadcasterStopped = zerr.New("broadcaster is stopped")

// Broadcaster fans the latest published value out to every subscriber.
// Delivery is lossy: a subscriber that has not consumed its previous value
// gets it replaced by the newest one. It is meant for "something changed"
// notifications where readers re-check shared state.
type Broadcaster[T any] struct {
	messageReceiver chan T
	mu              sync.Mutex
	subscribers     map[chan T]struct{}
	stopped         bool
	closing         bool
	done            chan struct{}
}

func RunNewBroadcaster[T any]() *Broadcaster[T] {
	broadcaster := &Broadcaster[T]{
		messageReceiver: make(chan T, 1),
		subscribers:     make(map[chan T]struct{}),
		done:            make(chan struct{}),
	}

	go broadcaster.start()

	return broadcaster
}

func (broadcaster *Broadcaster[T]) start() {
	defer close(broadcaster.done)

	for msg := range broadcaster.messageReceiver {
		// Sends never block, so they are done under the lock to keep
		// Unsubscribe from closing a channel mid-send.
		broadcaster.mu.Lock()
		for s := range broadcaster.subscribers {
			replaceLatest(s, msg)
		}
		broadcaster.mu.Unlock()
	}

	broadcaster.mu.Lock()
	for subscriberSender := range broadcaster.subscribers {
		close(subscriberSender)
	}
	broadcaster.subscribers = nil
	broadcaster.stopped = true
	broadcaster.mu.Unlock()
}

// replaceLatest sends msg without blocking, dropping the oldest buffered value if needed.
func replaceLatest[T any](ch chan T, msg T) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Stop closes every subscriber channel once pending messages were delivered.
// It is safe to call more than once.
func (broadcaster *Broadcaster[T]) Stop() {
	broadcaster.mu.Lock()
	if broadcaster.closing {
		broadcaster.mu.Unlock()
		return
	}
	broadcaster.closing = true
	close(broadcaster.messageReceiver)
	broadcaster.mu.Unlock()
}

// Done is closed after Stop once all subscribers have been closed.
func (broadcaster *Broadcaster[T]) Done() <-chan struct{} {
	return broadcaster.done
}

func (broadcaster *Broadcaster[T]) Subscribe() (chan T, error) {
	// A buffer of 1 lets us replace stale notifications without blocking.
	ch := make(chan T, 1)
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.stopped || broadcaster.closing {
		return nil, ErrBroadcasterStopped
	}
	broadcaster.subscribers[ch] = struct{}{}
	return ch, nil
}

func (broadcaster *Broadcaster[T]) Unsubscribe(subscriberSender chan T) {
	broadcaster.mu.Lock()
	_, ok := broadcaster.subscribers[subscriberSender]
	delete(broadcaster.subscribers, subscriberSender)
	broadcaster.mu.Unlock()
	if ok {
		close(subscriberSender)
	}
}

// Publish is a no-op after Stop.
func (broadcaster *Broadcaster[T]) Publish(msg T) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.closing {
		return
	}
	replaceLatest(broadcaster.messageReceiver, msg)
}
