package queue_test

import (
	"fmt"
	"testing"

	"github.com/calebouma/communitygraph/bsp/queue"
)

func TestMsgEnqueueDequeueAndIteration(t *testing.T) {
	q := queue.NewInMemoryQueue()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		err := q.Enqueue(msg{payload: fmt.Sprint(i)})
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}

		seen[fmt.Sprint(i)] = false
	}

	// Assert on pending messages.
	if !q.PendingMessages() {
		t.Error("Expected queue to have pending messages but got none")
	}

	// Assert that every enqueued message is surfaced exactly once. The
	// iteration order is unspecified, so only multiplicity is checked.
	var (
		it             = q.Messages()
		numOfProcessed int
	)

	for it.Next() {
		payload := it.Message().(msg).payload

		consumed, enqueued := seen[payload]
		if !enqueued {
			t.Errorf("Iterator surfaced unknown message %q", payload)
		}

		if consumed {
			t.Errorf("Iterator surfaced message %q more than once", payload)
		}

		seen[payload] = true
		numOfProcessed++
	}

	if numOfProcessed != 10 {
		t.Errorf(
			"Expected %d messages, but got %d messages instead",
			10,
			numOfProcessed,
		)
	}

	// Assert that the iterator didn't encounter any errors during iteration.
	if err := it.Error(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	// A fully consumed queue should report no pending messages.
	if q.PendingMessages() {
		t.Error("Expected queue to have 0 pending messages")
	}

	// Discard pending messages.
	if err := q.DiscardMessages(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	// Assert on pending messages.
	if q.PendingMessages() {
		t.Error("Expected queue to have 0 pending messages")
	}

	// Assert that the queue closes successfully.
	if err := q.Close(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestDiscardResetsIteration(t *testing.T) {
	q := queue.NewInMemoryQueue()

	for i := 0; i < 3; i++ {
		if err := q.Enqueue(msg{payload: "old"}); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if err := q.DiscardMessages(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if err := q.Enqueue(msg{payload: "new"}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	it := q.Messages()
	if !it.Next() {
		t.Fatal("Expected an unconsumed message after re-enqueue")
	}

	if payload := it.Message().(msg).payload; payload != "new" {
		t.Errorf("Expected message %q, but got %q instead", "new", payload)
	}

	if it.Next() {
		t.Error("Expected a single message after discard and re-enqueue")
	}
}

// Message stub.
type msg struct {
	payload string
}

func (m msg) Type() string {
	return "msg"
}
