package queue

import "sync"

// Static and compile-time check to ensure inMemoryQueue implements the
// Queue interface.
var _ Queue = (*inMemoryQueue)(nil)

// inMemoryQueue buffers messages in memory. Messages can be enqueued
// concurrently but the returned iterator is not safe for concurrent access.
type inMemoryQueue struct {
	mu sync.Mutex

	msgs []Message
	// Index of the next unconsumed message. Iterating by advancing a
	// cursor instead of popping keeps the backing slice's capacity
	// available for re-use after DiscardMessages.
	next int
	curr Message
}

// NewInMemoryQueue creates a new in-memory queue instance. This function can
// serve as a queue Factory.
func NewInMemoryQueue() Queue {
	return &inMemoryQueue{}
}

// Enqueue appends a new message to the queue.
func (q *inMemoryQueue) Enqueue(msg Message) error {
	q.mu.Lock()

	q.msgs = append(q.msgs, msg)

	q.mu.Unlock()

	return nil
}

// PendingMessages returns true if the queue holds unconsumed messages.
func (q *inMemoryQueue) PendingMessages() bool {
	q.mu.Lock()

	pending := q.next < len(q.msgs)

	q.mu.Unlock()

	return pending
}

// DiscardMessages drops all unconsumed messages from the queue.
func (q *inMemoryQueue) DiscardMessages() error {
	q.mu.Lock()

	q.msgs = q.msgs[:0]
	q.next = 0
	q.curr = nil

	q.mu.Unlock()

	return nil
}

// Messages returns an iterator over the queued messages.
func (q *inMemoryQueue) Messages() Iterator {
	return q
}

// Close releases all resources held by the queue.
func (q *inMemoryQueue) Close() error {
	return nil
}

// Next advances the iterator, returning false when no more messages are
// available.
func (q *inMemoryQueue) Next() bool {
	q.mu.Lock()

	if q.next >= len(q.msgs) {
		q.mu.Unlock()

		return false
	}

	q.curr = q.msgs[q.next]
	q.next++

	q.mu.Unlock()

	return true
}

// Message returns the message at the iterator's current position.
func (q *inMemoryQueue) Message() Message {
	q.mu.Lock()

	msg := q.curr

	q.mu.Unlock()

	return msg
}

// Error returns the last error encountered by the iterator.
func (q *inMemoryQueue) Error() error {
	return nil
}
