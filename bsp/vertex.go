package bsp

import "github.com/calebouma/communitygraph/bsp/queue"

// Vertex represents a single vertex / node in the Graph.
type Vertex struct {
	id     string
	value  interface{}
	active bool
	// Mailboxes are double-buffered by superstep parity: the queue at
	// index superstep%2 feeds the current superstep while the queue at
	// (superstep+1)%2 buffers deliveries for the next one.
	msgQueues [2]queue.Queue
	edges     []*Edge
}

// ID returns the vertex ID.
func (v *Vertex) ID() string { return v.id }

// Edges returns the list of outgoing edges from this vertex.
func (v *Vertex) Edges() []*Edge { return v.edges }

// Freeze marks the vertex as inactive. Inactive vertices are skipped in the
// following supersteps unless they receive a message, in which case they are
// re-activated.
func (v *Vertex) Freeze() { v.active = false }

// Value returns the value associated with this vertex.
func (v *Vertex) Value() interface{} { return v.value }

// SetValue assigns the provided value to this vertex.
func (v *Vertex) SetValue(val interface{}) { v.value = val }
