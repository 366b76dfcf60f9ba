package agent

import (
	"errors"
	"fmt"

	"github.com/quantfold/jumpsim/internal/rng"
)

var ErrUnknownAgent = errors.New("unknown agent id")

// Population is the ordered agent collection plus the single owned adjacency
// structure. Agents reference neighbors only through ids into this slice;
// edges are directed and nothing here assumes symmetry.
type Population struct {
	agents    []*Agent
	neighbors [][]ID
}

// NewPopulation wraps an agent slice. Agent ids must match their index.
func NewPopulation(agents []*Agent) (*Population, error) {
	for i, a := range agents {
		if a.ID != ID(i) {
			return nil, fmt.Errorf("agent at index %d has id %d: %w", i, a.ID, ErrUnknownAgent)
		}
	}
	return &Population{
		agents:    agents,
		neighbors: make([][]ID, len(agents)),
	}, nil
}

// Len returns the number of agents.
func (p *Population) Len() int { return len(p.agents) }

// Agent returns the agent with the given id.
func (p *Population) Agent(id ID) *Agent { return p.agents[id] }

// SetNeighbors replaces the outgoing neighbor list of one agent. The slice
// is owned by the population afterwards.
func (p *Population) SetNeighbors(id ID, ids []ID) error {
	if int(id) < 0 || int(id) >= len(p.agents) {
		return ErrUnknownAgent
	}
	for _, n := range ids {
		if int(n) < 0 || int(n) >= len(p.agents) {
			return fmt.Errorf("neighbor id %d: %w", n, ErrUnknownAgent)
		}
	}
	p.neighbors[id] = ids
	return nil
}

// Neighbors returns the outgoing neighbor ids of an agent. Callers must not
// mutate the returned slice.
func (p *Population) Neighbors(id ID) []ID { return p.neighbors[id] }

// NeighborCount returns the out-degree of an agent.
func (p *Population) NeighborCount(id ID) int { return len(p.neighbors[id]) }

// AvgNeighborBelief returns the mean belief over an agent's neighbors, or 0
// when it has none.
func (p *Population) AvgNeighborBelief(id ID) float64 {
	ns := p.neighbors[id]
	if len(ns) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, n := range ns {
		sum += p.agents[n].Belief
	}
	return sum / float64(len(ns))
}

// AvgBelief returns the population mean belief, a simple sentiment proxy.
func (p *Population) AvgBelief() float64 {
	if len(p.agents) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, a := range p.agents {
		sum += a.Belief
	}
	return sum / float64(len(p.agents))
}

// WireRandom builds a directed random graph: each ordered pair (i,j), i!=j,
// gets an edge with probability prob, drawn from the given stream. Existing
// edges are replaced.
func (p *Population) WireRandom(prob float64, stream *rng.Stream) {
	n := len(p.agents)
	for i := 0; i < n; i++ {
		var ns []ID
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if stream.Float64() < prob {
				ns = append(ns, ID(j))
			}
		}
		p.neighbors[i] = ns
	}
}

// Snapshots returns diagnostic records for every agent in id order.
func (p *Population) Snapshots() []Snapshot {
	out := make([]Snapshot, len(p.agents))
	for i, a := range p.agents {
		out[i] = a.Snapshot()
	}
	return out
}
