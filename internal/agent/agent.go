// Package agent models the heterogeneous traders of the simulation: their
// beliefs, behavioral parameters, inventory, and reactions to prices and
// news. The Population type owns the social graph agents trade over.
package agent

import (
	"math"

	"github.com/quantfold/jumpsim/internal/rng"
)

// ID identifies an agent and doubles as its index into the Population.
type ID int

// Kind is the closed set of agent behavior variants.
type Kind uint8

const (
	// Retail agents are momentum-prone and herd strongly.
	Retail Kind = iota
	// Institution agents anchor to fundamentals and manage inventory risk.
	Institution
	// Noise agents supply liquidity with mostly random demand.
	Noise
)

func (k Kind) String() string {
	switch k {
	case Retail:
		return "RETAIL"
	case Institution:
		return "INSTITUTION"
	case Noise:
		return "NOISE"
	default:
		return "UNKNOWN"
	}
}

// Params holds the behavioral parameters an agent is constructed with.
type Params struct {
	// Aggressiveness scales demand from the valuation signal.
	Aggressiveness float64 `yaml:"aggressiveness"`
	// TradeSizeScale converts raw demand into trade units.
	TradeSizeScale float64 `yaml:"trade_size_scale"`
	// RiskAversion penalizes inventory via the position penalty.
	RiskAversion float64 `yaml:"risk_aversion"`
	// LiquidityTolerance is the minimum |raw demand| required to trade.
	LiquidityTolerance float64 `yaml:"liquidity_tolerance"`
	// BeliefUpdateRate in [0,1] controls how fast belief tracks price.
	BeliefUpdateRate float64 `yaml:"belief_update_rate"`
	// NetworkInfluence weights neighbor beliefs in demand and diffusion.
	NetworkInfluence float64 `yaml:"network_influence"`
	// NoiseStd is the std-dev of the idiosyncratic demand noise.
	NoiseStd float64 `yaml:"noise_std"`
	// FundamentalAnchor is the long-run value used by Institution agents.
	FundamentalAnchor float64 `yaml:"fundamental_anchor"`
}

// Agent is a single trader. Belief, position, and cash are the only mutable
// state; position and cash change only through ApplyExecution.
type Agent struct {
	ID    ID
	Label string
	Kind  Kind

	Belief float64
	Params Params

	Position int
	Cash     float64

	stream *rng.Stream
}

// New constructs an agent with its belief seeded at the initial price and
// its own random stream. A zero seed is remapped by the stream constructor.
func New(id ID, label string, kind Kind, initPrice float64, p Params, seed uint64) *Agent {
	return &Agent{
		ID:     id,
		Label:  label,
		Kind:   kind,
		Belief: initPrice,
		Params: p,
		stream: rng.NewStream(seed),
	}
}

// positionPenalty is a smooth inventory cost that saturates in (-1,1)
// instead of growing without bound.
func positionPenalty(position int) float64 {
	p := float64(position)
	return p / (1.0 + math.Abs(p))
}

// ComputeDemand returns the agent's desired signed demand in asset units.
//
//	raw = aggressiveness*signal - riskAversion*penalty(position)
//	    + networkInfluence*(avgNeighborBelief - belief) + noise + shock
//
// Institutions fold half the gap to their fundamental anchor into the
// signal. Below the liquidity tolerance the agent does not trade at all.
// Advances the agent's private random stream.
func (a *Agent) ComputeDemand(marketPrice, globalShock, avgNeighborBelief float64, neighborCount int) float64 {
	signal := a.Belief - marketPrice
	if a.Kind == Institution {
		signal += 0.5 * (a.Params.FundamentalAnchor - marketPrice)
	}

	inventoryCost := a.Params.RiskAversion * positionPenalty(a.Position)

	herding := 0.0
	if neighborCount > 0 {
		herding = a.Params.NetworkInfluence * (avgNeighborBelief - a.Belief)
	}

	noise := a.Params.NoiseStd * a.stream.Norm()

	raw := a.Params.Aggressiveness*signal - inventoryCost + herding + noise + globalShock

	// No-trade band: negligible signals produce no order flow.
	if math.Abs(raw) < a.Params.LiquidityTolerance {
		return 0.0
	}
	return a.Params.TradeSizeScale * raw
}

// ApplyExecution books an executed trade. The accounting identity
// dCash = -qty*price holds exactly on every call.
func (a *Agent) ApplyExecution(qty int, price float64) {
	a.Position += qty
	a.Cash -= float64(qty) * price
}

// UpdateBelief applies adaptive expectations toward the observed price plus
// a small direct pass-through of the current shock. Institutions target a
// 70/30 blend of price and fundamental anchor. avgMarketSignal is carried
// for experiment variants that condition on sentiment; the baseline update
// does not use it.
func (a *Agent) UpdateBelief(observedPrice, globalShock, avgMarketSignal float64) {
	_ = avgMarketSignal

	target := observedPrice
	if a.Kind == Institution {
		target = 0.7*observedPrice + 0.3*a.Params.FundamentalAnchor
	}

	a.Belief += a.Params.BeliefUpdateRate * (target - a.Belief)
	a.Belief += 0.1 * globalShock
}

// ApplyShock is the heterogeneous direct reaction to a news shock: retail
// overreacts, institutions dampen, noise traders react randomly.
func (a *Agent) ApplyShock(strength float64) {
	switch a.Kind {
	case Retail:
		a.Belief += 1.2 * strength
	case Institution:
		a.Belief += 0.4 * strength
	case Noise:
		a.Belief += strength * a.stream.Norm()
	}
}

// AddBelief shifts the belief by delta. Used by the diffusion layer to apply
// the propagated local signal exactly once per shock.
func (a *Agent) AddBelief(delta float64) {
	a.Belief += delta
}

// Snapshot is the diagnostic serialization of an agent's mutable state.
type Snapshot struct {
	ID       ID      `json:"id"`
	Kind     string  `json:"type"`
	Belief   float64 `json:"belief"`
	Position int     `json:"position"`
	Cash     float64 `json:"cash"`
}

// Snapshot returns the agent's current diagnostic record.
func (a *Agent) Snapshot() Snapshot {
	return Snapshot{
		ID:       a.ID,
		Kind:     a.Kind.String(),
		Belief:   a.Belief,
		Position: a.Position,
		Cash:     a.Cash,
	}
}
