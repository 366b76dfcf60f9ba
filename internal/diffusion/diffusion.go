// Package diffusion propagates a global news shock through the agent
// network: type-dependent direct exposure first, then a fixed number of
// attenuated neighbor-averaging rounds, then a single belief application.
package diffusion

import (
	"math"

	"github.com/quantfold/jumpsim/internal/agent"
)

// negligibleShock bounds the shocks treated as an exact no-op.
const negligibleShock = 1e-9

// Config holds the attention and propagation parameters.
type Config struct {
	// BaseAttention scales every agent's direct exposure to the shock.
	BaseAttention float64 `yaml:"base_attention"`
	// RetailWeight overweights salient news for retail agents.
	RetailWeight float64 `yaml:"retail_weight"`
	// InstitutionWeight dampens the signal for institutions.
	InstitutionWeight float64 `yaml:"institution_weight"`
	// NoiseWeight is the intermediate weight for noise traders.
	NoiseWeight float64 `yaml:"noise_weight"`
	// Rounds is the number of network propagation rounds.
	Rounds int `yaml:"rounds"`
	// DecayRate attenuates round r contributions by exp(-DecayRate*r).
	DecayRate float64 `yaml:"decay_rate"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		BaseAttention:     0.6,
		RetailWeight:      1.2,
		InstitutionWeight: 0.6,
		NoiseWeight:       0.9,
		Rounds:            3,
		DecayRate:         0.8,
	}
}

func attentionWeight(kind agent.Kind, cfg Config) float64 {
	switch kind {
	case agent.Retail:
		return cfg.RetailWeight
	case agent.Institution:
		return cfg.InstitutionWeight
	default:
		return cfg.NoiseWeight
	}
}

// Propagate filters a global shock into per-agent local signals and applies
// them to beliefs exactly once. A negligible shock leaves every belief
// untouched, bit for bit.
//
// Rounds read a snapshot of the previous round's signals and write a
// separate buffer before merging, so results never depend on agent order
// within a round.
func Propagate(pop *agent.Population, globalShock float64, cfg Config) {
	if math.Abs(globalShock) < negligibleShock {
		return
	}

	n := pop.Len()
	local := make([]float64, n)
	next := make([]float64, n)

	// Direct exposure: heterogeneous media filtering of the same headline.
	for i := 0; i < n; i++ {
		w := attentionWeight(pop.Agent(agent.ID(i)).Kind, cfg)
		local[i] = cfg.BaseAttention * w * globalShock
	}

	for round := 1; round <= cfg.Rounds; round++ {
		decay := math.Exp(-cfg.DecayRate * float64(round))

		for i := 0; i < n; i++ {
			id := agent.ID(i)
			neighbors := pop.Neighbors(id)
			if len(neighbors) == 0 {
				continue
			}

			sum := 0.0
			for _, nid := range neighbors {
				sum += local[nid]
			}
			avg := sum / float64(len(neighbors))

			next[i] += decay * pop.Agent(id).Params.NetworkInfluence * avg
		}

		for i := 0; i < n; i++ {
			local[i] += next[i]
			next[i] = 0.0
		}
	}

	for i := 0; i < n; i++ {
		pop.Agent(agent.ID(i)).AddBelief(local[i])
	}
}
