package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"basegraph.app/specflow/internal/model"
)

const (
	JSONFile = "ado_work_items.json"
	CSVFile  = "ado_work_items.csv"
	RawFile  = "ado_work_items_raw.txt"
)

// ErrNoTickets means the state held no parsed tickets. The raw writer output,
// if any, was saved instead.
var ErrNoTickets = errors.New("no tickets to export")

// csvHeader is the column order Azure DevOps' work item import expects.
var csvHeader = []string{"Work Item Type", "Title", "Description", "Acceptance Criteria", "Priority"}

type Result struct {
	JSONPath string
	CSVPath  string
	RawPath  string
}

// Exporter writes drafted tickets into a directory for Azure DevOps import.
type Exporter struct {
	dir string
}

func New(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Save writes the JSON and CSV files for state's tickets. Without tickets it
// saves the raw writer output so nothing the model produced is lost.
func (e *Exporter) Save(state *model.State) (*Result, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	if len(state.Tickets) == 0 {
		if state.RawTickets == "" {
			return nil, ErrNoTickets
		}
		rawPath := filepath.Join(e.dir, RawFile)
		if err := os.WriteFile(rawPath, []byte(state.RawTickets), 0o644); err != nil {
			return nil, fmt.Errorf("writing raw output: %w", err)
		}
		return &Result{RawPath: rawPath}, ErrNoTickets
	}

	result := &Result{
		JSONPath: filepath.Join(e.dir, JSONFile),
		CSVPath:  filepath.Join(e.dir, CSVFile),
	}

	if err := writeJSON(result.JSONPath, state.Tickets); err != nil {
		return nil, err
	}
	if err := writeCSV(result.CSVPath, state.Tickets); err != nil {
		return nil, err
	}

	return result, nil
}

func writeJSON(path string, tickets []model.Ticket) error {
	data, err := json.MarshalIndent(tickets, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tickets: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeCSV(path string, tickets []model.Ticket) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", filepath.Base(path), cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, t := range tickets {
		record := []string{
			string(t.Type),
			t.Title,
			t.Description,
			string(t.AcceptanceCriteria),
			string(t.Priority),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
