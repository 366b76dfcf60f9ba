// Package output writes run artifacts: the per-step CSV log and the final
// JSON agent snapshots, grouped in a per-run directory.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/quantfold/jumpsim/internal/agent"
	"github.com/quantfold/jumpsim/internal/sim"
)

// Run owns the artifact files of one simulation run.
type Run struct {
	ID  string
	Dir string

	csvFile   *os.File
	csvWriter *csv.Writer
}

// NewRun creates baseDir/<run-id>/ and opens the step log inside it.
func NewRun(baseDir string) (*Run, error) {
	id := uuid.NewString()
	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "prices.csv"))
	if err != nil {
		return nil, fmt.Errorf("create step log: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "price", "log_return", "volatility", "shock"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	return &Run{ID: id, Dir: dir, csvFile: f, csvWriter: w}, nil
}

// WriteStep appends one record to the step log.
func (r *Run) WriteStep(rec sim.StepRecord) error {
	return r.csvWriter.Write([]string{
		strconv.FormatUint(rec.Time, 10),
		strconv.FormatFloat(rec.Price, 'f', 6, 64),
		strconv.FormatFloat(rec.LogReturn, 'f', 8, 64),
		strconv.FormatFloat(rec.Volatility, 'f', 8, 64),
		strconv.FormatFloat(rec.Shock, 'f', 6, 64),
	})
}

// WriteSnapshots writes the agent diagnostic records as agents.json.
func (r *Run) WriteSnapshots(snaps []agent.Snapshot) error {
	data, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshots: %w", err)
	}
	path := filepath.Join(r.Dir, "agents.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshots: %w", err)
	}
	return nil
}

// Close flushes and closes the step log.
func (r *Run) Close() error {
	r.csvWriter.Flush()
	if err := r.csvWriter.Error(); err != nil {
		r.csvFile.Close()
		return fmt.Errorf("flush step log: %w", err)
	}
	return r.csvFile.Close()
}
