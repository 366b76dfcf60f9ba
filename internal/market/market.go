// Package market implements single-asset price formation under finite
// liquidity: per-step order-flow aggregation, a linear impact clear with
// limit-up/limit-down clamping, EWMA volatility, and a circuit breaker.
package market

import (
	"errors"
	"math"
)

var (
	ErrNonPositiveLiquidity = errors.New("liquidity must be positive")
	ErrNonPositivePrice     = errors.New("initial price must be positive")
)

// priceFloor keeps the price strictly positive so log-returns stay defined.
const priceFloor = 1e-6

// Config holds the static per-run market parameters.
type Config struct {
	// InitialPrice is the starting clearing price.
	InitialPrice float64 `yaml:"initial_price"`
	// Liquidity is the market depth; impact scales inversely with it.
	Liquidity float64 `yaml:"liquidity"`
	// ImpactCoefficient maps normalized excess demand to a price change.
	ImpactCoefficient float64 `yaml:"impact_coefficient"`
	// VolatilityDecay is the EWMA decay for squared log-returns, in (0,1).
	VolatilityDecay float64 `yaml:"volatility_decay"`
	// MaxPriceChange caps |dPrice| per step (limit-up/limit-down).
	MaxPriceChange float64 `yaml:"max_price_change"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		InitialPrice:      100.0,
		Liquidity:         1200.0,
		ImpactCoefficient: 1.0,
		VolatilityDecay:   0.94,
		MaxPriceChange:    5.0,
	}
}

// Market is the per-run price-formation state. One instance per run,
// mutated every step, never reconstructed mid-run.
type Market struct {
	cfg Config

	price     float64
	lastPrice float64

	volatility float64

	cumulativeDemand float64
	cumulativeVolume float64

	time   uint64
	halted bool
}

// New validates the configuration and constructs a market.
func New(cfg Config) (*Market, error) {
	if cfg.Liquidity <= 0 {
		return nil, ErrNonPositiveLiquidity
	}
	if cfg.InitialPrice <= 0 {
		return nil, ErrNonPositivePrice
	}
	return &Market{
		cfg:       cfg,
		price:     cfg.InitialPrice,
		lastPrice: cfg.InitialPrice,
	}, nil
}

// BeginStep resets the per-step order-flow accumulators. Must be called at
// the start of every clearing window.
func (m *Market) BeginStep() {
	m.cumulativeDemand = 0.0
	m.cumulativeVolume = 0.0
}

// AddDemand accumulates one agent's signed demand. Accumulation continues
// even while halted; only the price is frozen.
func (m *Market) AddDemand(signedDemand float64) {
	m.cumulativeDemand += signedDemand
	m.cumulativeVolume += math.Abs(signedDemand)
}

// Clear converts the step's aggregate excess demand into a price change and
// returns the new price. While halted it returns the current price without
// mutating anything, and time does not advance.
func (m *Market) Clear() float64 {
	if m.halted {
		return m.price
	}

	m.lastPrice = m.price

	change := m.cfg.ImpactCoefficient * (m.cumulativeDemand / m.cfg.Liquidity)
	if change > m.cfg.MaxPriceChange {
		change = m.cfg.MaxPriceChange
	} else if change < -m.cfg.MaxPriceChange {
		change = -m.cfg.MaxPriceChange
	}

	m.price += change
	if m.price < priceFloor {
		m.price = priceFloor
	}

	m.time++
	return m.price
}

// LogReturn returns ln(price/lastPrice), or 0 if either price is
// non-positive. The floor makes the guard unreachable in normal operation.
func (m *Market) LogReturn() float64 {
	if m.lastPrice <= 0.0 || m.price <= 0.0 {
		return 0.0
	}
	return math.Log(m.price / m.lastPrice)
}

// UpdateVolatility folds the current log-return into the EWMA estimate.
// Call after Clear in the same step so the realized return is used.
func (m *Market) UpdateVolatility() {
	r := m.LogReturn()
	m.volatility = m.cfg.VolatilityDecay*m.volatility + (1.0-m.cfg.VolatilityDecay)*r*r
}

// Halt engages the circuit breaker. Re-entrant.
func (m *Market) Halt() { m.halted = true }

// Resume clears the circuit breaker. Re-entrant.
func (m *Market) Resume() { m.halted = false }

// Halted reports whether trading is halted.
func (m *Market) Halted() bool { return m.halted }

// Price returns the current clearing price.
func (m *Market) Price() float64 { return m.price }

// LastPrice returns the previous clearing price.
func (m *Market) LastPrice() float64 { return m.lastPrice }

// Volatility returns the EWMA of squared log-returns.
func (m *Market) Volatility() float64 { return m.volatility }

// Time returns the count of successful (non-halted) clears.
func (m *Market) Time() uint64 { return m.time }

// CumulativeDemand returns the signed order-flow imbalance of this step.
func (m *Market) CumulativeDemand() float64 { return m.cumulativeDemand }

// CumulativeVolume returns the absolute order flow of this step.
func (m *Market) CumulativeVolume() float64 { return m.cumulativeVolume }
