package buffers

import (
	"math"
	"sync"
	"time"

	"usage-ingestion/internal/shared/loggers"
)

// maxDefaultGrowth bounds how far overflow feedback can raise the default ratio over its seed.
const maxDefaultGrowth = 1.5

// EstimatorStats is a point-in-time view of the estimator window.
type EstimatorStats struct {
	Calls               int
	Overflows           int
	SumOfBytes          int
	SumOfUnits          int
	DefaultBytesPerUnit float64
}

// IncreasePolicy decides how much to raise the default ratio after an overflow.
// The result is clamped to [0, 1].
type IncreasePolicy func(stats EstimatorStats) float64

// OverflowRatePolicy returns ratio once overflows make up at least threshold of the recorded sends.
func OverflowRatePolicy(threshold, ratio float64) IncreasePolicy {
	return func(stats EstimatorStats) float64 {
		calls := max(stats.Calls, 1)
		if float64(stats.Overflows)/float64(calls) >= threshold {
			return ratio
		}
		return 0
	}
}

type EstimatorOptions struct {
	DefaultBytesPerUnit float64
	ResetAfter          time.Duration
	IncreaseBy          IncreasePolicy
	Logger              loggers.Logger
	Now                 func() time.Time
}

// SizeEstimator predicts the compressed wire size of a number of units from
// observed sends. Safe for concurrent use.
type SizeEstimator struct {
	mu sync.Mutex

	seed                float64
	defaultBytesPerUnit float64
	resetAfter          time.Duration
	increaseBy          IncreasePolicy
	now                 func() time.Time
	logger              loggers.Logger

	sumOfBytes int
	sumOfUnits int
	calls      int
	overflows  int
	lastReset  time.Time
}

func NewSizeEstimator(opts EstimatorOptions) *SizeEstimator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	increaseBy := opts.IncreaseBy
	if increaseBy == nil {
		increaseBy = func(EstimatorStats) float64 { return 0 }
	}
	return &SizeEstimator{
		seed:                opts.DefaultBytesPerUnit,
		defaultBytesPerUnit: opts.DefaultBytesPerUnit,
		resetAfter:          opts.ResetAfter,
		increaseBy:          increaseBy,
		now:                 now,
		logger:              opts.Logger,
		lastReset:           now(),
	}
}

// Estimate returns the predicted byte size of units.
func (e *SizeEstimator) Estimate(units int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sumOfUnits > 0 {
		return int(math.Round(float64(units) * float64(e.sumOfBytes) / float64(e.sumOfUnits)))
	}
	return int(math.Round(float64(units) * e.defaultBytesPerUnit))
}

// Teach records one realized send. The window is cleared first once resetAfter has elapsed.
func (e *SizeEstimator) Teach(bytes, units int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.resetAfter > 0 && e.now().Sub(e.lastReset) >= e.resetAfter {
		e.resetLocked()
	}
	if units <= 0 {
		return
	}
	e.sumOfBytes += bytes
	e.sumOfUnits += units
	e.calls++
}

// Overflowed records a send that exceeded the limit. The running sums are
// always dropped; the default ratio only grows when the policy says so and
// never past 1.5x the seed.
func (e *SizeEstimator) Overflowed(batchID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.overflows++
	ratio := e.increaseBy(e.statsLocked())
	ratio = math.Max(0, math.Min(1, ratio))

	e.sumOfBytes = 0
	e.sumOfUnits = 0

	if ratio > 0 {
		e.defaultBytesPerUnit = math.Min(e.defaultBytesPerUnit*(1+ratio), e.seed*maxDefaultGrowth)
	}
	metricEstimatorDefaultBytesPerUnit.Set(e.defaultBytesPerUnit)

	e.logger.Info().
		Str(loggers.FieldBatchID, batchID).
		Int("calls", e.calls).
		Int("overflows", e.overflows).
		Float64("increase_ratio", ratio).
		Float64("default_bytes_per_unit", e.defaultBytesPerUnit).
		Msg("estimator overflow recorded")
}

func (e *SizeEstimator) Stats() EstimatorStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked()
}

func (e *SizeEstimator) statsLocked() EstimatorStats {
	return EstimatorStats{
		Calls:               e.calls,
		Overflows:           e.overflows,
		SumOfBytes:          e.sumOfBytes,
		SumOfUnits:          e.sumOfUnits,
		DefaultBytesPerUnit: e.defaultBytesPerUnit,
	}
}

func (e *SizeEstimator) resetLocked() {
	e.sumOfBytes = 0
	e.sumOfUnits = 0
	e.calls = 0
	e.overflows = 0
	e.lastReset = e.now()
}
