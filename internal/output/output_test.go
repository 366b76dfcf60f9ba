package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantfold/jumpsim/internal/agent"
	"github.com/quantfold/jumpsim/internal/sim"
)

func TestRunArtifacts(t *testing.T) {
	base := t.TempDir()

	run, err := NewRun(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recs := []sim.StepRecord{
		{Time: 1, Price: 100.5, LogReturn: 0.00498754, Volatility: 0.0, Shock: 0.0},
		{Time: 2, Price: 100.25, LogReturn: -0.00249066, Volatility: 1.5e-6, Shock: -2.5},
	}
	for _, rec := range recs {
		if err := run.WriteStep(rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	snaps := []agent.Snapshot{
		{ID: 0, Kind: "RETAIL", Belief: 100.7, Position: 3, Cash: -301.5},
	}
	if err := run.WriteSnapshots(snaps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := run.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Step log round trip.
	f, err := os.Open(filepath.Join(run.Dir, "prices.csv"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	wantHeader := []string{"time", "price", "log_return", "volatility", "shock"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header column %d: expected %q, got %q", i, col, rows[0][i])
		}
	}
	if rows[1][0] != "1" || rows[1][1] != "100.500000" {
		t.Errorf("unexpected first data row: %v", rows[1])
	}

	// Snapshot round trip.
	data, err := os.ReadFile(filepath.Join(run.Dir, "agents.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []agent.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Kind != "RETAIL" || got[0].Position != 3 {
		t.Errorf("unexpected snapshots: %+v", got)
	}
}

func TestRunIDsUnique(t *testing.T) {
	base := t.TempDir()

	a, err := NewRun(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()
	b, err := NewRun(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Close()

	if a.ID == b.ID {
		t.Error("expected distinct run ids")
	}
}
