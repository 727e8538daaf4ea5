package bsp

// Edge represents a directed connection between two vertices in a Graph.
// Edges are owned by their source vertex and only record the destination.
type Edge struct {
	// ID of the vertex the edge points to.
	destID string
	// Optional payload attached to the edge. The engine never interprets
	// it; algorithms that only need fan-out pass nil.
	value interface{}
}

// DestID returns the ID of the vertex at the edge's target endpoint.
func (e *Edge) DestID() string { return e.destID }

// Value returns the value associated with this edge.
func (e *Edge) Value() interface{} { return e.value }

// SetValue assigns the provided value to this edge.
func (e *Edge) SetValue(val interface{}) { e.value = val }
