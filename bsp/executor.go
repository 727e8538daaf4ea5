package bsp

import "context"

// ExecutorCallbacks encapsulates the callbacks that an Executor invokes
// around each superstep. All callbacks are optional and are skipped when not
// specified.
type ExecutorCallbacks struct {
	// PreStep, if defined, is invoked before executing a superstep. This
	// is the place to reset aggregators or other per-superstep state.
	PreStep func(ctx context.Context, g *Graph) error

	// PostStep, if defined, is invoked after running a superstep.
	PostStep func(ctx context.Context, g *Graph, activeInStep int) error

	// ShouldRunAnotherStep, if defined, is invoked after running a
	// superstep to decide whether the run's termination condition has been
	// met. Returning false stops the executor.
	ShouldRunAnotherStep func(
		ctx context.Context, g *Graph, activeInStep int,
	) (bool, error)
}

func initWithDefaultCallbacks(cbs *ExecutorCallbacks) {
	if cbs.PreStep == nil {
		cbs.PreStep = func(ctx context.Context, g *Graph) error {
			return nil
		}
	}

	if cbs.PostStep == nil {
		cbs.PostStep = func(ctx context.Context, g *Graph, activeInStep int) error {
			return nil
		}
	}

	if cbs.ShouldRunAnotherStep == nil {
		cbs.ShouldRunAnotherStep = func(
			ctx context.Context, g *Graph, activeInStep int,
		) (bool, error) {

			return true, nil
		}
	}
}

// ExecutorFactory is a function that creates new Executor instances. Clients
// that need to intercept executor creation (e.g. to wrap callbacks) can
// install their own factory.
type ExecutorFactory func(g *Graph, cbs ExecutorCallbacks) *Executor

// Executor orchestrates the execution of supersteps until an error occurs or
// an exit condition is met. Cancellation is evaluated only at superstep
// boundaries; a superstep that has begun always runs to completion.
type Executor struct {
	g   *Graph
	cbs ExecutorCallbacks
}

// NewExecutor initializes and returns an Executor for the provided graph.
func NewExecutor(g *Graph, cbs ExecutorCallbacks) *Executor {
	initWithDefaultCallbacks(&cbs)
	g.superstep = 0

	return &Executor{
		g:   g,
		cbs: cbs,
	}
}

// Graph returns the graph instance associated with this executor.
func (ex *Executor) Graph() *Graph {
	return ex.g
}

// Superstep returns the graph's current superstep index.
func (ex *Executor) Superstep() int {
	return ex.g.Superstep()
}

// RunToCompletion executes supersteps until the context expires, an error
// occurs, or one of the PreStep / ShouldRunAnotherStep callbacks stops the
// run.
func (ex *Executor) RunToCompletion(ctx context.Context) error {
	return ex.run(ctx, -1)
}

// RunSteps executes at most numOfSteps supersteps unless the context expires,
// an error occurs, or one of the PreStep / ShouldRunAnotherStep callbacks
// stops the run first.
func (ex *Executor) RunSteps(ctx context.Context, numOfSteps int) error {
	return ex.run(ctx, numOfSteps)
}

func (ex *Executor) run(ctx context.Context, maxSteps int) error {
	var (
		activeInStep int
		err          error
		shouldRun    bool
		cbs          = ex.cbs
	)

	for ; maxSteps != 0; ex.g.superstep, maxSteps = ex.g.superstep+1, maxSteps-1 {
		if err = ensureContextNotExpired(ctx); err != nil {
			break
		} else if err = cbs.PreStep(ctx, ex.g); err != nil {
			break
		} else if activeInStep, err = ex.g.step(); err != nil {
			break
		} else if err = cbs.PostStep(ctx, ex.g, activeInStep); err != nil {
			break
		} else if shouldRun, err = cbs.ShouldRunAnotherStep(
			ctx, ex.g, activeInStep,
		); !shouldRun || err != nil {
			break
		}
	}

	return err
}

func ensureContextNotExpired(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
