package queue

// Message is implemented by values that can be delivered to a vertex's
// mailbox.
type Message interface {
	// Type returns the type of this Message.
	Type() string
}

// Queue is implemented by types that buffer the messages addressed to a
// single vertex between one superstep and the next.
type Queue interface {
	// Enqueue appends a new message to the queue.
	Enqueue(msg Message) error

	// PendingMessages returns true if the queue holds unconsumed messages.
	PendingMessages() bool

	// DiscardMessages drops all unconsumed messages from the queue.
	DiscardMessages() error

	// Messages returns an iterator over the queued messages.
	Messages() Iterator

	// Close releases all resources held by the queue.
	Close() error
}

// Iterator provides single-consumer access to a queue's contents. The order
// in which messages are surfaced is unspecified; consumers must not rely
// on it.
type Iterator interface {
	// Next advances the iterator, returning false when no more messages
	// are available or when an error occurs.
	Next() bool

	// Message returns the message at the iterator's current position.
	Message() Message

	// Error returns the last error encountered by the iterator.
	Error() error
}

// Factory creates new Queue instances. The graph invokes it lazily, once for
// each mailbox it needs.
type Factory func() Queue
