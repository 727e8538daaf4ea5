package bsp_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/calebouma/communitygraph/bsp"
	"github.com/calebouma/communitygraph/bsp/aggregator"
	"github.com/calebouma/communitygraph/bsp/queue"
)

var _ = check.Suite(new(bspGraphTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type bspGraphTestSuite struct{}

func (s *bspGraphTestSuite) TestMessageExchange(c *check.C) {
	g, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeFn: func(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
			v.Freeze()
			if g.Superstep() == 0 {
				var dest string

				switch v.ID() {
				case "0":
					dest = "1"
				case "1":
					dest = "0"
				}

				return g.SendMessage(dest, intMsg{value: 11})
			}

			for msgIt.Next() {
				v.SetValue(msgIt.Message().(intMsg).value)
			}

			return nil
		},
	})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(g.Close(), check.IsNil) }()

	g.AddVertex("0", 0)
	g.AddVertex("1", 1)

	err = executeFixedSteps(g, 2)
	c.Assert(err, check.IsNil)

	// A message sent in superstep 0 must only be visible in superstep 1.
	for id, vtx := range g.Vertices() {
		c.Assert(vtx.Value(), check.Equals, 11, check.Commentf("vertex %v", id))
	}
}

func (s *bspGraphTestSuite) TestMessageBroadcasting(c *check.C) {
	g, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeFn: func(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
			if err := g.BroadcastToNeighbors(v, intMsg{value: 11}); err != nil {
				return err
			}

			for msgIt.Next() {
				v.SetValue(msgIt.Message().(intMsg).value)
			}

			return nil
		},
	})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(g.Close(), check.IsNil) }()

	g.AddVertex("0", 11)
	g.AddVertex("1", 0)
	g.AddVertex("2", 0)
	g.AddVertex("3", 0)

	// Fan out from a single vertex.
	c.Assert(g.AddEdge("0", "1", nil), check.IsNil)
	c.Assert(g.AddEdge("0", "2", nil), check.IsNil)
	c.Assert(g.AddEdge("0", "3", nil), check.IsNil)

	err = executeFixedSteps(g, 2)
	c.Assert(err, check.IsNil)

	for id, vtx := range g.Vertices() {
		c.Assert(vtx.Value(), check.Equals, 11, check.Commentf("vertex %v", id))
	}
}

func (s *bspGraphTestSuite) TestMessageMultiplicity(c *check.C) {
	// Multiple messages to the same destination within one superstep must
	// all be retained; the engine performs no coalescing.
	g, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeFn: func(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
			v.Freeze()
			if g.Superstep() == 0 {
				if v.ID() == "sink" {
					return nil
				}

				// Each producer sends the same payload twice.
				for i := 0; i < 2; i++ {
					if err := g.SendMessage("sink", intMsg{value: 1}); err != nil {
						return err
					}
				}

				return nil
			}

			received := 0
			for msgIt.Next() {
				received += msgIt.Message().(intMsg).value
			}
			v.SetValue(received)

			return nil
		},
	})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(g.Close(), check.IsNil) }()

	g.AddVertex("sink", 0)
	g.AddVertex("a", 0)
	g.AddVertex("b", 0)

	err = executeFixedSteps(g, 2)
	c.Assert(err, check.IsNil)

	c.Assert(g.Vertices()["sink"].Value(), check.Equals, 4)
}

func (s *bspGraphTestSuite) TestAggregationWithComputeFunc(c *check.C) {
	g, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeWorkers: 4,
		ComputeFn: func(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
			g.Aggregator("counter").Aggregate(1)

			return nil
		},
	})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(g.Close(), check.IsNil) }()

	offset := 5
	g.RegisterAggregator("counter", new(aggregator.IntAccumulator))
	g.Aggregator("counter").Aggregate(offset)

	numOfVertices := 1000
	for i := 0; i < numOfVertices; i++ {
		g.AddVertex(fmt.Sprint(i), nil)
	}

	err = executeFixedSteps(g, 1)
	c.Assert(err, check.IsNil)

	c.Assert(g.Aggregators()["counter"].Get(), check.Equals, offset+numOfVertices)
}

func (s *bspGraphTestSuite) TestMessageRelay(c *check.C) {
	g1, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeFn: func(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
			if g.Superstep() == 0 {
				for _, e := range v.Edges() {
					_ = g.SendMessage(e.DestID(), intMsg{value: 11})
				}

				return nil
			}

			for msgIt.Next() {
				v.SetValue(msgIt.Message().(intMsg).value)
			}

			return nil
		},
	})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(g1.Close(), check.IsNil) }()

	g2, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeFn: func(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
			for msgIt.Next() {
				m := msgIt.Message().(intMsg)
				v.SetValue(m.value)
				_ = g.SendMessage("graph1.vertex", m)
			}

			return nil
		},
	})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(g2.Close(), check.IsNil) }()

	g1.AddVertex("graph1.vertex", nil)
	c.Assert(g1.AddEdge("graph1.vertex", "graph2.vertex", nil), check.IsNil)
	g1.RegisterRelayer(localRelayer{to: g2})

	g2.AddVertex("graph2.vertex", nil)
	g2.RegisterRelayer(localRelayer{to: g1})

	// Synchronizing graph instances is the host's job, so the test drives
	// both graphs from this goroutine in strict alternation, one superstep
	// at a time. g1 steps first in each round, which means a message sent
	// by g2 in its superstep t is enqueued while g1's counter already
	// reads t+1 and is therefore consumed by g1 in superstep t+2:
	// Superstep 0: g1 sends a message that is relayed to g2.
	// Superstep 1: g2 receives the message, updates its value and replies.
	// Superstep 3: g1 receives the reply and updates its value.
	exec1 := bsp.NewExecutor(g1, bsp.ExecutorCallbacks{})
	exec2 := bsp.NewExecutor(g2, bsp.ExecutorCallbacks{})

	for i := 0; i < 4; i++ {
		c.Assert(exec1.RunSteps(context.TODO(), 1), check.IsNil)
		c.Assert(exec2.RunSteps(context.TODO(), 1), check.IsNil)
	}

	c.Assert(g1.Vertices()["graph1.vertex"].Value(), check.Equals, 11)
	c.Assert(g2.Vertices()["graph2.vertex"].Value(), check.Equals, 11)
}

func (s *bspGraphTestSuite) TestUnknownEdgeSource(c *check.C) {
	g, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeFn: func(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
			return nil
		},
	})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(g.Close(), check.IsNil) }()

	err = g.AddEdge("ghost", "also-ghost", nil)
	c.Assert(errors.Is(err, bsp.ErrUnknownEdgeSource), check.Equals, true)
}

func (s *bspGraphTestSuite) TestInvalidMessageDestination(c *check.C) {
	// Without a registered relayer, a message to an unknown vertex must
	// fail the superstep instead of being silently dropped.
	g, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeFn: func(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
			return g.SendMessage("unknown", intMsg{value: 1})
		},
	})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(g.Close(), check.IsNil) }()

	g.AddVertex("0", nil)

	err = executeFixedSteps(g, 1)
	c.Assert(errors.Is(err, bsp.ErrInvalidMessageDestination), check.Equals, true)
}

func (s *bspGraphTestSuite) TestComputeFuncErrorHandling(c *check.C) {
	g, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeWorkers: 4,
		ComputeFn: func(g *bsp.Graph, v *bsp.Vertex, msgIt queue.Iterator) error {
			if v.ID() == "50" {
				return errors.New("something went wrong")
			}
			return nil
		},
	})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(g.Close(), check.IsNil) }()

	numOfVertices := 1000
	for i := 0; i < numOfVertices; i++ {
		g.AddVertex(fmt.Sprint(i), nil)
	}

	err = executeFixedSteps(g, 1)
	c.Assert(err, check.ErrorMatches, `running compute function for vertex "50" in superstep 0 failed: something went wrong`)
}

func (s *bspGraphTestSuite) TestGraphConfigValidation(c *check.C) {
	_, err := bsp.NewGraph(bsp.GraphConfig{})
	c.Assert(err, check.NotNil)
	c.Assert(err, check.ErrorMatches, `(?s).*compute function not provided.*`)
}

type intMsg struct {
	value int
}

func (m intMsg) Type() string { return "intMsg" }

type localRelayer struct {
	relayErr error
	to       *bsp.Graph
}

func (r localRelayer) Relay(destID string, msg queue.Message) error {
	if r.relayErr != nil {
		return r.relayErr
	}

	return r.to.SendMessage(destID, msg)
}

func executeFixedSteps(g *bsp.Graph, numOfSteps int) error {
	exec := bsp.NewExecutor(g, bsp.ExecutorCallbacks{})

	return exec.RunSteps(context.TODO(), numOfSteps)
}
