// Package sim owns the simulation engine: it wires the population, market,
// news process, and diffusion layer together and executes the strictly
// ordered per-step phase sequence.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/quantfold/jumpsim/internal/agent"
	"github.com/quantfold/jumpsim/internal/diffusion"
	"github.com/quantfold/jumpsim/internal/market"
	"github.com/quantfold/jumpsim/internal/news"
	"github.com/quantfold/jumpsim/internal/rng"
)

// StepRecord is the per-step log record consumed by writers and the UI.
type StepRecord struct {
	Time       uint64      `json:"time"`
	Price      float64     `json:"price"`
	LogReturn  float64     `json:"log_return"`
	Volatility float64     `json:"volatility"`
	Shock      float64     `json:"shock"`
	Regime     news.Regime `json:"regime"`
	Halted     bool        `json:"halted"`
}

// Engine executes one simulation run. It is single-threaded by contract:
// callers drive it from one goroutine, and only the demand phase fans out
// internally.
type Engine struct {
	cfg Config

	market *market.Market
	news   *news.Process
	pop    *agent.Population

	demands []float64

	records      chan StepRecord
	droppedCount atomic.Int64
	closed       chan struct{}
	closeOnce    sync.Once
}

// NewEngine validates the configuration and constructs a fully wired run.
// All randomness derives from cfg.Seed: the news process, the graph, and
// every agent get independent streams seeded from one master stream.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RecordBuffer <= 0 {
		cfg.RecordBuffer = DefaultConfig().RecordBuffer
	}

	mkt, err := market.New(cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("market: %w", err)
	}

	seeds := rng.NewStream(cfg.Seed)

	proc, err := news.NewProcess(cfg.News, seeds.Uint64())
	if err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}

	pop, err := buildPopulation(cfg.Population, cfg.Market.InitialPrice, seeds)
	if err != nil {
		return nil, fmt.Errorf("population: %w", err)
	}

	return &Engine{
		cfg:     cfg,
		market:  mkt,
		news:    proc,
		pop:     pop,
		demands: make([]float64, pop.Len()),
		records: make(chan StepRecord, cfg.RecordBuffer),
		closed:  make(chan struct{}),
	}, nil
}

// buildPopulation draws each agent's kind from the configured shares, seeds
// per-agent streams from the master stream, and wires the random graph.
func buildPopulation(cfg PopulationConfig, initPrice float64, seeds *rng.Stream) (*agent.Population, error) {
	agents := make([]*agent.Agent, cfg.NumAgents)
	for i := range agents {
		var kind agent.Kind
		switch r := seeds.Float64(); {
		case r < cfg.RetailShare:
			kind = agent.Retail
		case r < cfg.RetailShare+cfg.InstitutionShare:
			kind = agent.Institution
		default:
			kind = agent.Noise
		}

		var params agent.Params
		switch kind {
		case agent.Retail:
			params = cfg.Retail
		case agent.Institution:
			params = cfg.Institution
		case agent.Noise:
			params = cfg.Noise
		}
		if params.FundamentalAnchor == 0 {
			params.FundamentalAnchor = initPrice
		}

		label := fmt.Sprintf("agent-%d", i)
		agents[i] = agent.New(agent.ID(i), label, kind, initPrice, params, seeds.Uint64())
	}

	pop, err := agent.NewPopulation(agents)
	if err != nil {
		return nil, err
	}
	pop.WireRandom(cfg.Connectivity, rng.NewStream(seeds.Uint64()))
	return pop, nil
}

// Step executes one fully ordered simulation step and emits its record.
//
// Phase order is a correctness requirement: shock generation, belief
// perturbation (direct reaction plus network diffusion), demand against the
// frozen pre-clearing price, aggregation, clearing, execution at the new
// price, belief update, volatility update, then the halt decision for the
// next step.
func (e *Engine) Step() StepRecord {
	e.market.BeginStep()

	shock := e.news.GenerateShock()
	if shock != 0.0 {
		for i := 0; i < e.pop.Len(); i++ {
			e.pop.Agent(agent.ID(i)).ApplyShock(shock)
		}
		diffusion.Propagate(e.pop, shock, e.cfg.Diffusion)
	}

	avgBelief := e.pop.AvgBelief()
	preClearPrice := e.market.Price()

	e.computeDemands(preClearPrice, shock)
	for i := 0; i < e.pop.Len(); i++ {
		e.market.AddDemand(e.demands[i])
	}

	clearPrice := e.market.Clear()

	for i := 0; i < e.pop.Len(); i++ {
		executed := int(math.Round(e.demands[i]))
		e.pop.Agent(agent.ID(i)).ApplyExecution(executed, clearPrice)
	}

	for i := 0; i < e.pop.Len(); i++ {
		e.pop.Agent(agent.ID(i)).UpdateBelief(clearPrice, shock, avgBelief)
	}

	e.market.UpdateVolatility()

	rec := StepRecord{
		Time:       e.market.Time(),
		Price:      e.market.Price(),
		LogReturn:  e.market.LogReturn(),
		Volatility: e.market.Volatility(),
		Shock:      shock,
		Regime:     e.news.Regime(),
		Halted:     e.market.Halted(),
	}

	// Circuit breaker: an extreme move freezes the next clear; a halted
	// step cools off and reopens.
	if e.market.Halted() {
		e.market.Resume()
	} else if math.Abs(rec.LogReturn) > e.cfg.HaltThreshold {
		e.market.Halt()
	}

	e.emit(rec)
	return rec
}

// computeDemands fills e.demands for every agent against the same frozen
// price and shock. With Workers > 1 agents are sharded across goroutines;
// each agent touches only its own stream and slice slot, so the result is
// identical to the serial path.
func (e *Engine) computeDemands(price, shock float64) {
	n := e.pop.Len()
	workers := e.cfg.Workers
	if workers <= 1 || n < 2*workers {
		for i := 0; i < n; i++ {
			e.demands[i] = e.demandFor(agent.ID(i), price, shock)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				e.demands[i] = e.demandFor(agent.ID(i), price, shock)
			}
		}(lo, hi)
	}
	wg.Wait()
}

func (e *Engine) demandFor(id agent.ID, price, shock float64) float64 {
	return e.pop.Agent(id).ComputeDemand(
		price,
		shock,
		e.pop.AvgNeighborBelief(id),
		e.pop.NeighborCount(id),
	)
}

func (e *Engine) emit(rec StepRecord) {
	if e.cfg.DropRecords {
		select {
		case e.records <- rec:
		default:
			e.droppedCount.Add(1)
		}
		return
	}
	select {
	case e.records <- rec:
	case <-e.closed:
	}
}

// Run executes the given number of steps (cfg.Steps when steps <= 0) and
// closes the record channel on return. Cancelling the context abandons the
// run wholesale.
func (e *Engine) Run(ctx context.Context, steps int) error {
	defer e.close()

	if steps <= 0 {
		steps = e.cfg.Steps
	}
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.Step()
	}
	return nil
}

func (e *Engine) close() {
	e.closeOnce.Do(func() {
		close(e.closed)
		close(e.records)
	})
}

// Records returns the step-record channel. It is closed when Run returns.
func (e *Engine) Records() <-chan StepRecord { return e.records }

// DroppedRecords returns the count of records dropped on overflow.
func (e *Engine) DroppedRecords() int64 { return e.droppedCount.Load() }

// Market exposes the market for diagnostics.
func (e *Engine) Market() *market.Market { return e.market }

// Population exposes the population for diagnostics.
func (e *Engine) Population() *agent.Population { return e.pop }

// Regime returns the news process's current regime.
func (e *Engine) Regime() news.Regime { return e.news.Regime() }

// Snapshots returns diagnostic records for every agent.
func (e *Engine) Snapshots() []agent.Snapshot { return e.pop.Snapshots() }
