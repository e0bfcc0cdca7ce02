package runner

import "sync"

// Dispatcher marshals callbacks onto the consumer's thread. Callbacks must run
// one at a time and in the order they were dispatched. Dispatch returns false
// when the dispatcher no longer accepts work; the runner then invokes the
// callback itself so no event is lost.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// EventLoop is a Dispatcher backed by a single goroutine draining an
// unbounded FIFO queue. Dispatch never blocks, so a slow consumer cannot
// stall the process output pipe.
type EventLoop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewEventLoop starts the loop goroutine.
func NewEventLoop() *EventLoop {
	l := &EventLoop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.loop()
	return l
}

func (l *EventLoop) loop() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Dispatch queues fn. It returns false after Close.
func (l *EventLoop) Dispatch(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Close stops accepting callbacks. Callbacks already queued still run; wait
// on Done for them to finish.
func (l *EventLoop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
}

// Done is closed once the loop has drained and exited after Close.
func (l *EventLoop) Done() <-chan struct{} {
	return l.done
}
