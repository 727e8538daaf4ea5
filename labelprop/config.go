package labelprop

import (
	"errors"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

// Config encapsulates the configuration options for creating community
// detector instances.
type Config struct {
	// ComputeWorkers specifies the number of workers to use for label
	// propagation supersteps. If not specified, a single worker will be
	// used.
	ComputeWorkers int

	// MaxIterations caps the number of supersteps the detector may
	// execute. It must be >= 0; a zero value leaves the initial labels
	// untouched.
	MaxIterations int

	// Logger for run and per-superstep diagnostics. If not defined, an
	// output-discarding logger will be used instead.
	Logger *logrus.Entry

	// Clock instance used to time detection passes. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock
}

func (c *Config) validate() error {
	var err error

	if c.ComputeWorkers <= 0 {
		c.ComputeWorkers = 1
	}

	if c.MaxIterations < 0 {
		err = multierror.Append(err, errors.New(
			"invalid value for max iterations, must be >= 0",
		))
	}

	if c.Logger == nil {
		c.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	if c.Clock == nil {
		c.Clock = clock.WallClock
	}

	return err
}
