// Package stats is the one-way downstream observer of the return stream:
// streaming moments, kurtosis, jump counting, and a volatility-clustering
// proxy. Nothing here feeds back into the simulation.
package stats

import "math"

// Config holds the collector parameters.
type Config struct {
	// JumpThreshold flags a return as a jump when its standardized
	// magnitude exceeds this value.
	JumpThreshold float64 `yaml:"jump_threshold"`
	// EWMADecay is the decay of the absolute-return EWMA.
	EWMADecay float64 `yaml:"ewma_decay"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		JumpThreshold: 4.0,
		EWMADecay:     0.94,
	}
}

// Collector accumulates streaming moments of log-returns via Welford-style
// updates, so variance and kurtosis are available at any point without
// storing the series.
type Collector struct {
	cfg Config

	n    int64
	mean float64
	m2   float64
	m3   float64
	m4   float64

	jumpCount     int64
	absReturnEWMA float64
}

// NewCollector constructs an empty collector.
func NewCollector(cfg Config) *Collector {
	return &Collector{cfg: cfg}
}

// Update folds one log-return into the moment estimates and the jump count.
func (c *Collector) Update(logReturn float64) {
	if c.IsJump(logReturn) {
		c.jumpCount++
	}

	c.n++
	n := float64(c.n)

	delta := logReturn - c.mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * (n - 1)

	c.mean += deltaN
	c.m4 += term1*deltaN2*(n*n-3*n+3) + 6*deltaN2*c.m2 - 4*deltaN*c.m3
	c.m3 += term1*deltaN*(n-2) - 3*deltaN*c.m2
	c.m2 += term1

	c.absReturnEWMA = c.cfg.EWMADecay*c.absReturnEWMA +
		(1.0-c.cfg.EWMADecay)*math.Abs(logReturn)
}

// N returns the number of observed returns.
func (c *Collector) N() int64 { return c.n }

// Variance returns the sample variance, or 0 with fewer than two samples.
func (c *Collector) Variance() float64 {
	if c.n < 2 {
		return 0.0
	}
	return c.m2 / float64(c.n-1)
}

// Kurtosis returns the (non-excess) sample kurtosis; 3 for a Gaussian.
// Returns 0 until the second moment is meaningful.
func (c *Collector) Kurtosis() float64 {
	if c.n < 2 || c.m2 == 0 {
		return 0.0
	}
	n := float64(c.n)
	return n * c.m4 / (c.m2 * c.m2)
}

// IsJump reports whether a return would count as a jump given the current
// estimates: standardized by the running std-dev once available, raw
// against the threshold before that.
func (c *Collector) IsJump(logReturn float64) bool {
	v := c.Variance()
	if v > 0 {
		return math.Abs(logReturn) > c.cfg.JumpThreshold*math.Sqrt(v)
	}
	return math.Abs(logReturn) > c.cfg.JumpThreshold
}

// JumpCount returns the number of jumps seen so far.
func (c *Collector) JumpCount() int64 { return c.jumpCount }

// JumpFrequency returns the fraction of observed returns flagged as jumps.
func (c *Collector) JumpFrequency() float64 {
	if c.n == 0 {
		return 0.0
	}
	return float64(c.jumpCount) / float64(c.n)
}

// AbsReturnEWMA returns the absolute-return EWMA, a volatility-clustering
// proxy.
func (c *Collector) AbsReturnEWMA() float64 { return c.absReturnEWMA }
