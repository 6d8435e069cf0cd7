package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Trial is one row of the curated trial registry. Rows are read-only filter
// input; the matcher never modifies them.
type Trial struct {
	TrialID     string `json:"trial_id"`
	Condition   string `json:"condition"`
	BriefTitle  string `json:"brief_title"`
	Eligibility string `json:"eligibility"`
	HRStatus    string `json:"hr_status"`
	HER2Status  string `json:"her2_status"`
	PhaseType   string `json:"phase_type"`
}

var requiredColumns = []string{
	"Trial ID",
	"Condition",
	"Brief Title",
	"Eligibility",
	"HR Status",
	"HER2 Status",
	"Phase Type",
}

// Load reads the registry CSV at path. The file is read fresh on every match
// attempt so registry edits take effect without a restart.
func Load(path string) ([]Trial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trial registry: %w", err)
	}
	defer f.Close()
	trials, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("trial registry %s: %w", path, err)
	}
	return trials, nil
}

// Read parses registry rows from r. The header row must name every required
// column; extra columns are ignored.
func Read(r io.Reader) ([]Trial, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("registry is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := map[string]int{}
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("registry missing required column %q", col)
		}
	}

	var trials []Trial
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		cell := func(col string) string {
			i := index[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		trials = append(trials, Trial{
			TrialID:     cell("Trial ID"),
			Condition:   cell("Condition"),
			BriefTitle:  cell("Brief Title"),
			Eligibility: cell("Eligibility"),
			HRStatus:    cell("HR Status"),
			HER2Status:  cell("HER2 Status"),
			PhaseType:   cell("Phase Type"),
		})
	}
	return trials, nil
}
