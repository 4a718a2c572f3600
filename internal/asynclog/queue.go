package asynclog

import "sync"

// queue is an unbounded FIFO of entries. push never blocks beyond the mutex.
// Once closed it rejects pushes until reopened.
type queue struct {
	mu     sync.Mutex
	items  []Entry
	closed bool
	ready  chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

// push appends e and reports false, leaving the queue untouched, when the
// queue is closed.
func (q *queue) push(e Entry) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

func (q *queue) open() {
	q.mu.Lock()
	q.closed = false
	q.mu.Unlock()
}

func (q *queue) pop() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Entry{}, false
	}
	e := q.items[0]
	q.items[0] = Entry{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return e, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drain discards everything queued and reports how many entries were lost.
func (q *queue) drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}
