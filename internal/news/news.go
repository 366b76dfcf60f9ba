// Package news generates the exogenous information shocks of a run: a
// two-regime Markov chain gates heavy-tailed arrivals so quiet and active
// periods cluster instead of arriving i.i.d.
package news

import (
	"errors"
	"fmt"
	"math"

	"github.com/quantfold/jumpsim/internal/rng"
)

var ErrBadProbability = errors.New("probability must be in [0,1]")

// Regime is the news-arrival state of the market environment.
type Regime uint8

const (
	Calm Regime = iota
	Stressed
)

func (r Regime) String() string {
	switch r {
	case Calm:
		return "CALM"
	case Stressed:
		return "STRESSED"
	default:
		return "UNKNOWN"
	}
}

// Config holds the regime-switching and shock-magnitude parameters.
type Config struct {
	// PSwitchToStress is the per-step Calm -> Stressed probability.
	PSwitchToStress float64 `yaml:"p_switch_to_stress"`
	// PSwitchToCalm is the per-step Stressed -> Calm probability.
	PSwitchToCalm float64 `yaml:"p_switch_to_calm"`
	// CalmArrival is the shock arrival probability while calm.
	CalmArrival float64 `yaml:"calm_arrival"`
	// StressArrival is the shock arrival probability while stressed.
	StressArrival float64 `yaml:"stress_arrival"`
	// CalmScale scales shock magnitudes while calm.
	CalmScale float64 `yaml:"calm_scale"`
	// StressScale scales shock magnitudes while stressed.
	StressScale float64 `yaml:"stress_scale"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		PSwitchToStress: 0.002,
		PSwitchToCalm:   0.01,
		CalmArrival:     0.01,
		StressArrival:   0.05,
		CalmScale:       2.0,
		StressScale:     8.0,
	}
}

// Process owns the regime state and its random stream. Each simulation
// constructs its own Process; there is no package-level state.
type Process struct {
	cfg    Config
	regime Regime
	stream *rng.Stream
}

// NewProcess validates the configuration and constructs a calm process
// seeded with the given value (0 remaps to the stream default).
func NewProcess(cfg Config, seed uint64) (*Process, error) {
	for name, p := range map[string]float64{
		"p_switch_to_stress": cfg.PSwitchToStress,
		"p_switch_to_calm":   cfg.PSwitchToCalm,
		"calm_arrival":       cfg.CalmArrival,
		"stress_arrival":     cfg.StressArrival,
	} {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("%s = %v: %w", name, p, ErrBadProbability)
		}
	}
	return &Process{
		cfg:    cfg,
		regime: Calm,
		stream: rng.NewStream(seed),
	}, nil
}

// GenerateShock advances the regime chain once and returns the step's
// global shock, or 0 when no arrival fires.
func (p *Process) GenerateShock() float64 {
	switch p.regime {
	case Calm:
		if p.stream.Float64() < p.cfg.PSwitchToStress {
			p.regime = Stressed
		}
	case Stressed:
		if p.stream.Float64() < p.cfg.PSwitchToCalm {
			p.regime = Calm
		}
	}

	arrival := p.cfg.CalmArrival
	scale := p.cfg.CalmScale
	if p.regime == Stressed {
		arrival = p.cfg.StressArrival
		scale = p.cfg.StressScale
	}

	if p.stream.Float64() > arrival {
		return 0.0
	}
	return p.heavyTail(scale)
}

// heavyTail draws a Student-t-like variate: a normal divided by the square
// root of an independent uniform fattens the tails.
func (p *Process) heavyTail(scale float64) float64 {
	z := p.stream.Norm()
	u := p.stream.Float64()
	if u < 1e-12 {
		u = 1e-12
	}
	return scale * z / math.Sqrt(u)
}

// Regime returns the current regime for diagnostics.
func (p *Process) Regime() Regime { return p.regime }
