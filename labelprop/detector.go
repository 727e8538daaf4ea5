/*
	labelprop implements community detection by label propagation on top
	of the bsp engine. Every vertex starts out with a caller-supplied
	label seeding its own community; vertices then repeatedly adopt the
	label that is most frequent among their neighbors until no label
	changes or the configured iteration ceiling is reached. Vertices that
	end up sharing a label form one community.
*/

package labelprop

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/calebouma/communitygraph/bsp"
	"github.com/calebouma/communitygraph/bsp/aggregator"
)

// ErrUnknownEdgeDestination is returned when the destination vertex of an
// edge is not present in the graph. The detector owns the whole graph, so
// unlike the engine it has no notion of remote destinations and rejects such
// edges outright instead of dropping their messages later.
var ErrUnknownEdgeDestination = errors.New(
	"destination vertex is not part of the graph",
)

// Detector executes the label propagation algorithm on a graph until the
// labels reach a fixpoint, no vertex remains active, or the configured
// iteration ceiling is reached.
type Detector struct {
	g               *bsp.Graph
	cfg             Config
	executorFactory bsp.ExecutorFactory
}

// NewDetector returns a new Detector instance using the provided config
// options.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf(
			"community detector config validation failed: %w", err,
		)
	}

	g, err := bsp.NewGraph(bsp.GraphConfig{
		ComputeWorkers: cfg.ComputeWorkers,
		ComputeFn:      propagateLabels,
	})
	if err != nil {
		return nil, err
	}

	return &Detector{
		g:               g,
		cfg:             cfg,
		executorFactory: bsp.NewExecutor,
	}, nil
}

// Graph returns the underlying Graph instance.
func (d *Detector) Graph() *bsp.Graph {
	return d.g
}

// Close frees up any allocated graph resources.
func (d *Detector) Close() error {
	return d.g.Close()
}

// SetExecutorFactory sets a custom executor factory for the detector.
func (d *Detector) SetExecutorFactory(factory bsp.ExecutorFactory) {
	d.executorFactory = factory
}

// AddVertex inserts a vertex with the specified ID and initial community
// label into the graph. Initial labels seed the communities and should be
// distinct across vertices.
func (d *Detector) AddVertex(id string, label int64) {
	d.g.AddVertex(id, label)
}

// AddEdge inserts a directed edge from src to dst. Both endpoints must
// already be part of the graph; edges referencing unknown vertices are
// rejected rather than silently dropped. Callers wanting undirected
// semantics must insert the reverse edge themselves.
func (d *Detector) AddEdge(src, dst string) error {
	if _, exists := d.g.Vertices()[dst]; !exists {
		return fmt.Errorf(
			"create edge from %q to %q: %w", src, dst, ErrUnknownEdgeDestination,
		)
	}

	return d.g.AddEdge(src, dst, nil)
}

// Labels invokes the provided visitor function with the current label of
// each vertex in the graph.
func (d *Detector) Labels(visitFn func(id string, label int64) error) error {
	for id, v := range d.g.Vertices() {
		if err := visitFn(id, v.Value().(int64)); err != nil {
			return err
		}
	}

	return nil
}

// DetectCommunities executes the label propagation compute function until
// convergence or until the configured maximum number of supersteps has been
// performed. It returns once the final labels are available through Labels.
func (d *Detector) DetectCommunities(ctx context.Context) error {
	d.registerAggregators()

	start := d.cfg.Clock.Now()

	exec := d.executorFactory(d.g, bsp.ExecutorCallbacks{
		PreStep: func(_ context.Context, g *bsp.Graph) error {
			// Reset the per-superstep counters.
			g.Aggregator(changedLabelsAggr).Set(0)
			g.Aggregator(sentMessagesAggr).Set(0)

			return nil
		},

		PostStep: func(_ context.Context, g *bsp.Graph, activeInStep int) error {
			d.cfg.Logger.WithFields(logrus.Fields{
				"superstep":      g.Superstep(),
				"active":         activeInStep,
				"changed_labels": g.Aggregator(changedLabelsAggr).Get(),
			}).Debug("completed superstep")

			return nil
		},

		ShouldRunAnotherStep: func(
			_ context.Context, g *bsp.Graph, _ int,
		) (bool, error) {

			// The next superstep only has work if messages were
			// delivered to it.
			if g.Aggregator(sentMessagesAggr).Get().(int) == 0 {
				return false, nil
			}

			// Superstep 0 merely seeds the announcements, so the
			// fixpoint check applies from superstep 1 onwards: once
			// an update round changes no labels, re-running it
			// cannot change them either.
			changed := g.Aggregator(changedLabelsAggr).Get().(int)

			return !(g.Superstep() > 0 && changed == 0), nil
		},
	})

	if err := exec.RunSteps(ctx, d.cfg.MaxIterations); err != nil {
		return err
	}

	d.cfg.Logger.WithFields(logrus.Fields{
		"num_vertices": len(d.g.Vertices()),
		"supersteps":   d.g.Superstep(),
		"duration":     d.cfg.Clock.Now().Sub(start).String(),
	}).Info("completed community detection pass")

	return nil
}

// registerAggregators creates and registers the aggregator instances needed
// by the label propagation run.
func (d *Detector) registerAggregators() {
	d.g.RegisterAggregator(changedLabelsAggr, new(aggregator.IntAccumulator))
	d.g.RegisterAggregator(sentMessagesAggr, new(aggregator.IntAccumulator))
}
