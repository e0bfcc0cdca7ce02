package output_storage

import (
	"context"
	"sync"
	"sync/atomic"
)

// node represents an element in the singly linked list.
// The list uses a sentinel head node so readers never see a nil head.
type node struct {
	data []byte
	next atomic.Pointer[node]
}

// OutputStorage is the transcript of one process run: an append-only
// singly linked list of output chunks. Readers walk the list without locks
// while a writer appends; subscribers are woken through a Broadcaster.
type OutputStorage struct {
	head *node // sentinel head, immutable

	appendMu sync.Mutex
	tail     *node // last element in the list (or sentinel if empty)
	size     atomic.Int64
	chunks   atomic.Int64

	broadcaster *Broadcaster[struct{}]
	stopOnce    sync.Once
}

// RunNewOutputStorage creates a new, empty OutputStorage.
func RunNewOutputStorage() *OutputStorage {
	sentinel := &node{}
	return &OutputStorage{
		head:        sentinel,
		tail:        sentinel,
		broadcaster: RunNewBroadcaster[struct{}](),
	}
}

// Stop marks the transcript complete and returns once every live
// subscription has been woken. Subscriptions drain what is stored and close.
func (s *OutputStorage) Stop() {
	if s == nil {
		return
	}
	s.stopOnce.Do(s.broadcaster.Stop)
	<-s.broadcaster.Done()
}

// Append adds the provided byte slice to the end of the list.
// The slice is stored as-is; Write stores a copy.
func (s *OutputStorage) Append(data []byte) {
	if s == nil {
		return
	}

	newTail := &node{data: data}

	s.appendMu.Lock()
	s.tail.next.Store(newTail)
	s.tail = newTail
	s.appendMu.Unlock()

	s.size.Add(int64(len(data)))
	s.chunks.Add(1)
	s.broadcaster.Publish(struct{}{})
}

// Len returns the number of bytes stored so far.
func (s *OutputStorage) Len() int64 {
	if s == nil {
		return 0
	}
	return s.size.Load()
}

// Chunks returns the number of appended chunks.
func (s *OutputStorage) Chunks() int64 {
	if s == nil {
		return 0
	}
	return s.chunks.Load()
}

// Subscribe replays the transcript from the first chunk and then follows live
// appends. The channel closes after Stop once everything was delivered, or
// as soon as ctx is done.
func (s *OutputStorage) Subscribe(ctx context.Context, capacity int) <-chan []byte {
	ch := make(chan []byte, capacity)
	if s == nil {
		close(ch)
		return ch
	}
	notifier, err := s.broadcaster.Subscribe()
	if err != nil {
		notifier = nil
	}
	go s.follow(ctx, notifier, ch)

	return ch
}

// follow sends every chunk after the sentinel into ch. A nil notifier means
// the storage was already stopped and only the stored chunks are sent.
func (s *OutputStorage) follow(ctx context.Context, notifier chan struct{}, ch chan []byte) {
	defer close(ch)
	if notifier != nil {
		defer s.broadcaster.Unsubscribe(notifier)
	}

	prev := s.head
	drain := func() bool {
		for {
			current := prev.next.Load()
			if current == nil {
				return true
			}
			select {
			case ch <- current.data:
			case <-ctx.Done():
				return false
			}
			prev = current
		}
	}

	for {
		if !drain() {
			return
		}
		if notifier == nil {
			return
		}
		select {
		case _, ok := <-notifier:
			if !ok {
				// Stopped: anything appended before Stop is already linked.
				drain()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// ForEach iterates over all stored byte slices in insertion order.
// The iterator function receives each slice; if it returns false, iteration stops early.
func (s *OutputStorage) ForEach(iter func([]byte) bool) {
	if s == nil || iter == nil {
		return
	}
	cur := s.head.next.Load() // skip sentinel
	for cur != nil {
		if !iter(cur.data) {
			return
		}
		cur = cur.next.Load()
	}
}

// Bytes concatenates all stored byte slices into a single slice.
func (s *OutputStorage) Bytes() []byte {
	out := make([]byte, 0, s.Len())
	s.ForEach(func(b []byte) bool {
		out = append(out, b...)
		return true
	})
	return out
}

// String returns all stored byte slices concatenated into a single string.
func (s *OutputStorage) String() string {
	return string(s.Bytes())
}
