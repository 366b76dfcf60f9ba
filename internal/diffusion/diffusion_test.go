package diffusion

import (
	"math"
	"testing"

	"github.com/quantfold/jumpsim/internal/agent"
)

func twoAgentPopulation(t *testing.T, influence float64) *agent.Population {
	t.Helper()
	p := agent.Params{NetworkInfluence: influence}
	agents := []*agent.Agent{
		agent.New(0, "a0", agent.Retail, 100.0, p, 1),
		agent.New(1, "a1", agent.Retail, 100.0, p, 2),
	}
	pop, err := agent.NewPopulation(agents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return pop
}

func TestZeroShockIsExactNoOp(t *testing.T) {
	pop := twoAgentPopulation(t, 0.5)
	if err := pop.SetNeighbors(0, []agent.ID{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pop.Agent(0).Belief = 101.234567890123
	pop.Agent(1).Belief = 98.7654321098765

	before := []float64{pop.Agent(0).Belief, pop.Agent(1).Belief}
	Propagate(pop, 0.0, DefaultConfig())
	Propagate(pop, 1e-12, DefaultConfig()) // below the negligible bound

	for i, want := range before {
		if got := pop.Agent(agent.ID(i)).Belief; got != want {
			t.Errorf("agent %d belief changed on zero shock: %v != %v", i, got, want)
		}
	}
}

func TestDirectedTwoAgentFixture(t *testing.T) {
	// Edge 0 -> 1 only. Agent 1 never hears from anyone, so it keeps the
	// direct term; agent 0 accumulates attenuated echoes of agent 1's
	// (constant) signal across all three rounds.
	pop := twoAgentPopulation(t, 0.5)
	if err := pop.SetNeighbors(0, []agent.ID{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := DefaultConfig()
	shock := 1.0
	Propagate(pop, shock, cfg)

	direct := cfg.BaseAttention * cfg.RetailWeight * shock // 0.72
	echo := 0.0
	for r := 1; r <= cfg.Rounds; r++ {
		echo += math.Exp(-cfg.DecayRate*float64(r)) * 0.5 * direct
	}

	want0 := 100.0 + direct + echo
	want1 := 100.0 + direct

	if got := pop.Agent(0).Belief; math.Abs(got-want0) > 1e-12 {
		t.Errorf("agent 0: expected %v, got %v", want0, got)
	}
	if got := pop.Agent(1).Belief; math.Abs(got-want1) > 1e-12 {
		t.Errorf("agent 1: expected %v, got %v", want1, got)
	}
}

func TestAttentionWeightsByKind(t *testing.T) {
	p := agent.Params{}
	agents := []*agent.Agent{
		agent.New(0, "r", agent.Retail, 0.0, p, 1),
		agent.New(1, "i", agent.Institution, 0.0, p, 2),
		agent.New(2, "n", agent.Noise, 0.0, p, 3),
	}
	pop, err := agent.NewPopulation(agents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := DefaultConfig()
	Propagate(pop, 1.0, cfg)

	wants := []float64{
		cfg.BaseAttention * cfg.RetailWeight,
		cfg.BaseAttention * cfg.InstitutionWeight,
		cfg.BaseAttention * cfg.NoiseWeight,
	}
	for i, want := range wants {
		if got := pop.Agent(agent.ID(i)).Belief; math.Abs(got-want) > 1e-12 {
			t.Errorf("agent %d: expected belief %v, got %v", i, want, got)
		}
	}
}

func TestRoundSnapshotOrderIndependence(t *testing.T) {
	// A symmetric pair must end with identical beliefs regardless of which
	// index is visited first inside a round.
	pop := twoAgentPopulation(t, 0.7)
	if err := pop.SetNeighbors(0, []agent.ID{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pop.SetNeighbors(1, []agent.ID{0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	Propagate(pop, 2.0, DefaultConfig())

	if pop.Agent(0).Belief != pop.Agent(1).Belief {
		t.Errorf("symmetric agents diverged: %v != %v",
			pop.Agent(0).Belief, pop.Agent(1).Belief)
	}
}
