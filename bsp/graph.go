/*
	bsp implements an in-memory, vertex-centric graph computation engine
	based on the bulk synchronous parallel (BSP) model. Computation
	proceeds in supersteps: within a superstep the configured compute
	function runs independently over every active vertex, and messages
	emitted during superstep t are only visible to their destinations at
	superstep t+1. That one-superstep delay is the engine's sole ordering
	contract and acts as the barrier between rounds.
*/

package bsp

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/calebouma/communitygraph/bsp/queue"
)

var (
	// ErrUnknownEdgeSource is returned when the source vertex of an edge
	// is not present in the graph.
	ErrUnknownEdgeSource = errors.New("source vertex is not part of the graph")

	// ErrDestinationLocal is returned by Relayer implementations when a
	// message destination does not resolve to a remote vertex.
	ErrDestinationLocal = errors.New(
		"message destination is assigned to the local graph",
	)

	// ErrInvalidMessageDestination is returned when a message destination
	// cannot be resolved to any (local or remote) vertex.
	ErrInvalidMessageDestination = errors.New("invalid message destination")
)

// Graph implements the superstep protocol over an in-memory set of vertices
// and their outgoing edges.
type Graph struct {
	wg            sync.WaitGroup
	superstep     int
	activeInStep  int64
	pendingInStep int64
	aggregators   map[string]Aggregator
	vertices      map[string]*Vertex
	computeFn     ComputeFunc
	queueFactory  queue.Factory
	relayer       Relayer

	vertexCh        chan *Vertex
	errCh           chan error
	stepCompletedCh chan struct{}
}

// NewGraph creates a new Graph instance using the provided configuration.
// Callers must invoke Close() on the returned graph instance when they are
// done using it.
func NewGraph(cfg GraphConfig) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("graph config validation failed: %w", err)
	}

	g := &Graph{
		computeFn:    cfg.ComputeFn,
		queueFactory: cfg.QueueFactory,
		aggregators:  make(map[string]Aggregator),
		vertices:     make(map[string]*Vertex),
	}

	g.startWorkers(cfg.ComputeWorkers)

	return g, nil
}

// Close releases any resources associated with the graph.
func (g *Graph) Close() error {
	close(g.vertexCh)
	g.wg.Wait()

	return g.Reset()
}

// Reset clears the graph's state: the superstep counter goes back to zero,
// every vertex mailbox is closed and the vertex and aggregator maps are
// re-created. Reset allows a client to re-use the same graph instance for a
// fresh run over a new vertex set.
func (g *Graph) Reset() error {
	g.superstep = 0

	for _, v := range g.vertices {
		for i := 0; i < 2; i++ {
			if err := v.msgQueues[i].Close(); err != nil {
				return fmt.Errorf(
					"closing message queue %d for vertex %q failed: %w",
					i, v.ID(), err,
				)
			}
		}
	}

	g.vertices = make(map[string]*Vertex)
	g.aggregators = make(map[string]Aggregator)

	return nil
}

// Vertices returns the graph's vertex map, keyed by vertex ID.
func (g *Graph) Vertices() map[string]*Vertex {
	return g.vertices
}

// AddVertex inserts a new vertex with the specified id and initial value
// into the graph. If the vertex already exists, its value is overwritten
// instead.
func (g *Graph) AddVertex(id string, value interface{}) {
	v, exists := g.vertices[id]
	if !exists {
		v = &Vertex{
			id: id,
			msgQueues: [2]queue.Queue{
				g.queueFactory(),
				g.queueFactory(),
			},
			active: true,
		}

		g.vertices[id] = v
	}

	v.SetValue(value)
}

// AddEdge inserts a directed edge from srcID to destID annotated with the
// specified value. Edges are owned by their source vertex, so srcID must
// resolve to a local vertex; destinations may be local or owned by a remote
// graph instance reachable through a Relayer.
func (g *Graph) AddEdge(srcID, destID string, value interface{}) error {
	srcVertex, exists := g.vertices[srcID]
	if !exists {
		return fmt.Errorf(
			"create edge from %q to %q: %w", srcID, destID, ErrUnknownEdgeSource,
		)
	}

	srcVertex.edges = append(srcVertex.edges, &Edge{
		destID: destID,
		value:  value,
	})

	return nil
}

// RegisterAggregator adds an aggregator with the specified name to the graph.
func (g *Graph) RegisterAggregator(name string, aggr Aggregator) {
	g.aggregators[name] = aggr
}

// Aggregator returns the aggregator with the specified name, or nil if no
// such aggregator is registered.
func (g *Graph) Aggregator(name string) Aggregator {
	return g.aggregators[name]
}

// Aggregators returns a map of all currently registered aggregators.
func (g *Graph) Aggregators() map[string]Aggregator {
	return g.aggregators
}

// RegisterRelayer configures a Relayer that the graph invokes when attempting
// to deliver a message to a vertex that is not known locally but could be
// owned by a remote graph instance.
func (g *Graph) RegisterRelayer(relayer Relayer) {
	g.relayer = relayer
}

// BroadcastToNeighbors queues a copy of msg for delivery to every destination
// reachable via the vertex's outgoing edges. Queued messages are processed by
// their recipients in the following superstep.
func (g *Graph) BroadcastToNeighbors(v *Vertex, msg queue.Message) error {
	for _, e := range v.edges {
		if err := g.SendMessage(e.destID, msg); err != nil {
			return err
		}
	}

	return nil
}

// SendMessage queues a message for delivery to the vertex with the specified
// destination ID. Queued messages are processed by their recipients in the
// following superstep.
//
// If the destination ID is not known to this graph it might still belong to
// a vertex owned by a remote graph instance; if a Relayer has been
// registered, SendMessage delegates delivery to it. Otherwise, or if the
// relayer reports the destination as local, SendMessage fails with
// ErrInvalidMessageDestination; unroutable messages are never silently
// dropped.
func (g *Graph) SendMessage(destID string, msg queue.Message) error {
	destVertex, exists := g.vertices[destID]
	if exists {
		// Enqueue into the buffer for the next superstep.
		queueIdx := (g.superstep + 1) % 2

		return destVertex.msgQueues[queueIdx].Enqueue(msg)
	}

	if g.relayer != nil {
		if err := g.relayer.Relay(destID, msg); !errors.Is(
			err, ErrDestinationLocal) {

			return err
		}
	}

	return fmt.Errorf(
		"message can't be delivered to %q: %w",
		destID, ErrInvalidMessageDestination,
	)
}

// Superstep returns the current superstep index.
func (g *Graph) Superstep() int {
	return g.superstep
}

// step executes the next superstep and returns the number of vertices that
// were processed, either because they were still active or because they had
// pending messages.
//
// A superstep is only complete once every vertex has been examined; the
// first error returned by the compute function aborts the run.
func (g *Graph) step() (int, error) {
	g.activeInStep = 0
	g.pendingInStep = int64(len(g.vertices))

	if g.pendingInStep == 0 {
		return 0, nil
	}

	for _, v := range g.vertices {
		g.vertexCh <- v
	}

	// Block until the worker pool has finished processing all vertices.
	// This is the superstep barrier: no message enqueued during this
	// superstep is visible until every vertex's turn has completed.
	<-g.stepCompletedCh

	var err error

	select {
	case err = <-g.errCh:
	default:
	}

	return int(g.activeInStep), err
}

// startWorkers spins up numOfWorkers goroutines to process vertices for each
// superstep. The workers are long-lived and are shut down by Close.
func (g *Graph) startWorkers(numOfWorkers int) {
	g.vertexCh = make(chan *Vertex)
	// The error channel is buffered so that workers never block when
	// reporting: step() only drains it after the whole superstep has
	// completed, and the first reported error wins.
	g.errCh = make(chan error, 1)
	g.stepCompletedCh = make(chan struct{})

	g.wg.Add(numOfWorkers)
	for i := 0; i < numOfWorkers; i++ {
		go g.stepWorker()
	}
}

// stepWorker polls the vertex channel and runs the configured compute
// function on each received vertex. A vertex gets a turn only if it is
// marked active or has messages pending for the current superstep. The
// worker exits when the vertex channel is closed.
func (g *Graph) stepWorker() {
	for v := range g.vertexCh {
		queueIdx := g.superstep % 2
		if v.active || v.msgQueues[queueIdx].PendingMessages() {
			_ = atomic.AddInt64(&g.activeInStep, 1)
			v.active = true

			if err := g.computeFn(g, v, v.msgQueues[queueIdx].Messages()); err != nil {
				tryToEmitErr(g.errCh, fmt.Errorf(
					"running compute function for vertex %q in superstep %d failed: %w",
					v.ID(), g.superstep, err,
				))
			} else if err := v.msgQueues[queueIdx].DiscardMessages(); err != nil {
				tryToEmitErr(g.errCh, fmt.Errorf(
					"discarding unprocessed messages for vertex %q failed: %w",
					v.ID(), err,
				))
			}
		}

		// The last vertex of the superstep signals completion; workers
		// count down the pending total to find out which one it is.
		if atomic.AddInt64(&g.pendingInStep, -1) == 0 {
			g.stepCompletedCh <- struct{}{}
		}
	}

	g.wg.Done()
}

func tryToEmitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	// The channel already holds an unread error; keep the first one.
	default:
	}
}
