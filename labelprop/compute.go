package labelprop

import (
	"fmt"

	"github.com/calebouma/communitygraph/bsp"
	"github.com/calebouma/communitygraph/bsp/queue"
)

// Names of the aggregators consulted by the executor callbacks to decide
// whether another superstep is warranted.
const (
	changedLabelsAggr = "changed_labels"
	sentMessagesAggr  = "sent_messages"
)

// Static and compile-time check to ensure LabelMessage implements the
// Message interface.
var _ queue.Message = (*LabelMessage)(nil)

// LabelMessage announces a vertex's current community label to a neighbor.
type LabelMessage struct {
	Label int64
}

// Type returns the type of this message.
func (m LabelMessage) Type() string { return "label" }

// propagateLabels serves as the graph compute function. In superstep 0 each
// vertex announces its caller-supplied seed label to its out-neighbors; in
// every later superstep a vertex adopts the most frequent label among the
// announcements it received, then announces the adopted label in turn.
func propagateLabels(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
	// Activity is purely message-driven: a frozen vertex only runs again
	// when a neighbor's announcement arrives.
	v.Freeze()

	if g.Superstep() == 0 {
		return announce(g, v, v.Value().(int64))
	}

	frequencies := make(map[int64]int)
	for msgIt.Next() {
		msg, ok := msgIt.Message().(LabelMessage)
		if !ok {
			return fmt.Errorf(
				"unexpected message of type %q", msgIt.Message().Type(),
			)
		}

		frequencies[msg.Label]++
	}

	// The vertex's own label acts as a frequency-1 baseline, so an empty
	// inbox leaves it unchanged. Frequency ties go to the numerically
	// larger label; that rule is what keeps the outcome deterministic
	// regardless of iteration order.
	var (
		current  = v.Value().(int64)
		newLabel = current
		maxFreq  = 1
	)

	for label, freq := range frequencies {
		switch {
		case freq > maxFreq:
			maxFreq = freq
			newLabel = label
		case freq == maxFreq && label > newLabel:
			newLabel = label
		}
	}

	if newLabel != current {
		v.SetValue(newLabel)
		g.Aggregator(changedLabelsAggr).Aggregate(1)
	}

	// An active vertex announces once per turn even when its label did
	// not change.
	return announce(g, v, newLabel)
}

// announce queues one copy of the label for every out-neighbor of v and
// records the fan-out, which the executor uses to detect an empty next
// active set.
func announce(g *bsp.Graph, v *bsp.Vertex, label int64) error {
	numOfEdges := len(v.Edges())
	if numOfEdges == 0 {
		return nil
	}

	g.Aggregator(sentMessagesAggr).Aggregate(numOfEdges)

	return g.BroadcastToNeighbors(v, LabelMessage{Label: label})
}
