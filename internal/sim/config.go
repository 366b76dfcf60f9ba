package sim

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantfold/jumpsim/internal/agent"
	"github.com/quantfold/jumpsim/internal/diffusion"
	"github.com/quantfold/jumpsim/internal/market"
	"github.com/quantfold/jumpsim/internal/news"
	"github.com/quantfold/jumpsim/internal/stats"
)

var (
	ErrNoAgents  = errors.New("population must have at least one agent")
	ErrBadShare  = errors.New("population shares must be in [0,1] and sum to at most 1")
	ErrNoSteps   = errors.New("steps must be positive")
	ErrBadConfig = errors.New("invalid config")
)

// PopulationConfig describes the agent mixture and the social graph.
type PopulationConfig struct {
	// NumAgents is the population size.
	NumAgents int `yaml:"num_agents"`
	// RetailShare and InstitutionShare partition the population; the
	// remainder are noise traders.
	RetailShare      float64 `yaml:"retail_share"`
	InstitutionShare float64 `yaml:"institution_share"`
	// Connectivity is the directed edge probability of the random graph.
	Connectivity float64 `yaml:"connectivity"`

	// Per-kind behavioral presets. A zero FundamentalAnchor defaults to
	// the market's initial price.
	Retail      agent.Params `yaml:"retail"`
	Institution agent.Params `yaml:"institution"`
	Noise       agent.Params `yaml:"noise"`
}

// Config aggregates every parameter a run is constructed from.
type Config struct {
	// Seed is the master seed; all component streams derive from it.
	// 0 is remapped to the stream default.
	Seed uint64 `yaml:"seed"`
	// Steps is the number of simulation steps for Run.
	Steps int `yaml:"steps"`
	// HaltThreshold triggers the circuit breaker when |log-return|
	// exceeds it. The halt lasts one step.
	HaltThreshold float64 `yaml:"halt_threshold"`
	// Workers parallelizes the demand phase when > 1. Output is
	// bit-identical to the serial path.
	Workers int `yaml:"workers"`
	// RecordBuffer is the capacity of the step-record channel.
	RecordBuffer int `yaml:"record_buffer"`
	// DropRecords determines whether the record channel drops on overflow
	// instead of blocking the step loop.
	DropRecords bool `yaml:"drop_records"`

	Population PopulationConfig `yaml:"population"`
	Market     market.Config    `yaml:"market"`
	News       news.Config      `yaml:"news"`
	Diffusion  diffusion.Config `yaml:"diffusion"`
	Stats      stats.Config     `yaml:"stats"`
}

// DefaultConfig returns the baseline experiment: 400 agents in a 60/30/10
// retail/institution/noise mixture over a sparse directed graph.
func DefaultConfig() Config {
	return Config{
		Seed:          1,
		Steps:         3000,
		HaltThreshold: 0.15,
		Workers:       1,
		RecordBuffer:  1024,
		DropRecords:   false,
		Population: PopulationConfig{
			NumAgents:        400,
			RetailShare:      0.6,
			InstitutionShare: 0.3,
			Connectivity:     0.01,
			Retail: agent.Params{
				Aggressiveness:     1.0,
				TradeSizeScale:     1.0,
				RiskAversion:       0.2,
				LiquidityTolerance: 0.02,
				BeliefUpdateRate:   0.05,
				NetworkInfluence:   0.7,
				NoiseStd:           0.6,
			},
			Institution: agent.Params{
				Aggressiveness:     0.5,
				TradeSizeScale:     1.0,
				RiskAversion:       0.8,
				LiquidityTolerance: 0.02,
				BeliefUpdateRate:   0.05,
				NetworkInfluence:   0.1,
				NoiseStd:           0.2,
			},
			Noise: agent.Params{
				Aggressiveness:     0.2,
				TradeSizeScale:     1.0,
				RiskAversion:       0.1,
				LiquidityTolerance: 0.02,
				BeliefUpdateRate:   0.05,
				NetworkInfluence:   0.0,
				NoiseStd:           1.0,
			},
		},
		Market:    market.DefaultConfig(),
		News:      news.DefaultConfig(),
		Diffusion: diffusion.DefaultConfig(),
		Stats:     stats.DefaultConfig(),
	}
}

// Validate checks the engine-level parameters. Market and news parameters
// are validated by their own constructors.
func (c Config) Validate() error {
	if c.Population.NumAgents <= 0 {
		return ErrNoAgents
	}
	rs, is := c.Population.RetailShare, c.Population.InstitutionShare
	if rs < 0 || is < 0 || rs > 1 || is > 1 || rs+is > 1 {
		return ErrBadShare
	}
	if c.Steps <= 0 {
		return ErrNoSteps
	}
	if c.HaltThreshold <= 0 {
		return fmt.Errorf("halt_threshold must be positive: %w", ErrBadConfig)
	}
	if c.Population.Connectivity < 0 || c.Population.Connectivity > 1 {
		return fmt.Errorf("connectivity must be in [0,1]: %w", ErrBadConfig)
	}
	if c.Diffusion.Rounds < 0 {
		return fmt.Errorf("diffusion rounds must be non-negative: %w", ErrBadConfig)
	}
	return nil
}

// LoadConfig reads a YAML file over the defaults, so partial configs only
// override what they name.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
