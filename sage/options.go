package sage

import (
	"time"

	"github.com/YuminosukeSato/sagego/pkg/errors"
	"github.com/YuminosukeSato/sagego/pkg/log"
)

// ProgressFunc receives the number of example evaluations just completed.
// Estimators call it after every reveal step (PermutationEstimator) or
// minibatch (IteratedEstimator), so a caller can drive a progress display
// without the estimation core performing any I/O itself.
//
// Under WithParallel the IteratedEstimator invokes the callback from
// multiple goroutines at once; implementations must be safe for concurrent
// use.
type ProgressFunc func(processed int)

type config struct {
	batchSize            int
	nSamples             int
	mSamples             int
	detectConvergence    bool
	convergenceThreshold float64
	seed                 int64
	seedSet              bool
	logger               log.Logger
	progress             ProgressFunc
	parallel             bool
}

func defaultConfig() config {
	return config{
		batchSize:            64,
		nSamples:             1024,
		mSamples:             1,
		convergenceThreshold: 0.01,
		logger:               log.NewNopLogger(),
	}
}

func (c *config) validate() error {
	if c.batchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.batchSize)
	}
	if c.nSamples <= 0 {
		return errors.NewValidationError("n_samples", "must be positive", c.nSamples)
	}
	if c.mSamples <= 0 {
		return errors.NewValidationError("m_samples", "must be positive", c.mSamples)
	}
	if c.detectConvergence && c.convergenceThreshold <= 0 {
		return errors.NewValidationError("convergence_threshold", "must be positive", c.convergenceThreshold)
	}
	return nil
}

func (c *config) rngSeed() int64 {
	if c.seedSet {
		return c.seed
	}
	return time.Now().UnixNano()
}

// Option configures an estimator.
type Option func(*config)

// WithBatchSize sets the number of examples per minibatch.
func WithBatchSize(n int) Option {
	return func(c *config) {
		c.batchSize = n
	}
}

// WithNSamples sets the outer Monte Carlo budget: the total number of
// example draws per estimation loop.
func WithNSamples(n int) Option {
	return func(c *config) {
		c.nSamples = n
	}
}

// WithMSamples sets the number of independent imputation draws averaged per
// evaluation. Clamped to 1 when the imputation module is deterministic.
func WithMSamples(m int) Option {
	return func(c *config) {
		c.mSamples = m
	}
}

// WithConvergenceDetection enables anytime early stopping: the loop halts
// once sqrt(max per-feature variance) falls below threshold times the
// estimated total.
func WithConvergenceDetection(threshold float64) Option {
	return func(c *config) {
		c.detectConvergence = true
		c.convergenceThreshold = threshold
	}
}

// WithLogger injects a structured logger for progress and diagnostic events.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProgress installs a per-processed-example progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithSeed fixes the estimator's random stream for reproducible runs.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
		c.seedSet = true
	}
}

// WithParallel runs the IteratedEstimator's per-feature loops concurrently.
// Each feature keeps its own tracker and random stream; no mutable state
// crosses feature boundaries. PermutationEstimator ignores it.
func WithParallel(parallel bool) Option {
	return func(c *config) {
		c.parallel = parallel
	}
}
