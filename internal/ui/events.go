package ui

import (
	"github.com/quantfold/jumpsim/internal/agent"
	"github.com/quantfold/jumpsim/internal/sim"
)

// Event is the interface for messages sent from the simulation to the UI.
type Event interface {
	Type() string
}

// StepEvent carries one step record plus the statistics computed from the
// return stream so far.
type StepEvent struct {
	Record        sim.StepRecord
	Variance      float64
	Kurtosis      float64
	JumpCount     int64
	JumpFrequency float64
}

func (e StepEvent) Type() string { return "step" }

// SnapshotEvent carries the current agent diagnostic records.
type SnapshotEvent struct {
	Agents []agent.Snapshot
}

func (e SnapshotEvent) Type() string { return "snapshot" }

// Channels holds the communication channels between simulation and UI.
type Channels struct {
	Steps     chan StepEvent
	Snapshots chan SnapshotEvent
	Shutdown  chan struct{}
}

// NewChannels creates the channel set. The UI only needs the freshest
// state, so senders drop on overflow rather than block the step loop.
func NewChannels() *Channels {
	return &Channels{
		Steps:     make(chan StepEvent, 256),
		Snapshots: make(chan SnapshotEvent, 8),
		Shutdown:  make(chan struct{}),
	}
}

// Publisher feeds simulation events into the UI channels.
type Publisher struct {
	channels *Channels
}

// NewPublisher creates a publisher writing to the given channels.
func NewPublisher(channels *Channels) *Publisher {
	return &Publisher{channels: channels}
}

// PublishStep sends a step event; drops it if the UI is behind.
func (p *Publisher) PublishStep(ev StepEvent) {
	select {
	case p.channels.Steps <- ev:
	default:
	}
}

// PublishSnapshots sends copied agent snapshots; drops them if the UI is
// behind.
func (p *Publisher) PublishSnapshots(snaps []agent.Snapshot) {
	out := make([]agent.Snapshot, len(snaps))
	copy(out, snaps)
	select {
	case p.channels.Snapshots <- SnapshotEvent{Agents: out}:
	default:
	}
}
