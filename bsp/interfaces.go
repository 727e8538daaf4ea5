package bsp

import "github.com/calebouma/communitygraph/bsp/queue"

// Aggregator is implemented by types that provide concurrent-safe
// aggregation primitives (e.g. counters, min/max).
type Aggregator interface {
	// Type returns the type of this aggregator.
	Type() string

	// Set the aggregator to the specified value.
	Set(val interface{})

	// Get the current aggregator value.
	Get() interface{}

	// Aggregate folds the provided value into the aggregator's current
	// value.
	Aggregate(val interface{})

	// Delta returns the change in the aggregator's value since the last
	// call to Delta. Hosts that split a graph across multiple engine
	// instances can feed the per-instance deltas into a top-level
	// aggregator to reduce them into a single global value after each
	// superstep.
	Delta() interface{}
}

// Relayer is implemented by types that can route messages to vertices that
// are managed by another graph instance. It is the hook through which a host
// runtime plugs in its own message routing.
type Relayer interface {
	// Relay a message to a vertex that is not known locally. Relay must
	// return ErrDestinationLocal if the provided destination does not
	// resolve to a remote vertex either.
	Relay(destID string, msg queue.Message) error
}

// The RelayerFunc type is an adapter that allows the use of ordinary
// functions as Relayers. If f is a function with the appropriate signature,
// RelayerFunc(f) is a Relayer that calls f.
type RelayerFunc func(string, queue.Message) error

// Relay calls f(destID, msg).
func (f RelayerFunc) Relay(destID string, msg queue.Message) error {
	return f(destID, msg)
}

// ComputeFunc is invoked on each active vertex when executing a superstep.
// Implementations receive the vertex's inbound messages for this superstep
// and must not touch the state of any other vertex.
type ComputeFunc func(g *Graph, v *Vertex, msgIt queue.Iterator) error
