package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/harrison/archsearch/internal/models"
)

// CSVHeader is the header row written by CSVExporter.
var CSVHeader = []string{
	"run_id", "pass", "root", "location", "folder", "display_name", "occurrence_count", "sample_lines",
}

// CSVExporter exports one row per result. Sample lines are joined with newlines
// inside a single quoted field.
type CSVExporter struct{}

// Export converts the report to CSV
func (ce *CSVExporter) Export(report *models.RunReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report cannot be nil")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, err
	}

	for pass, s := range report.Searches {
		for _, r := range s.Results {
			lines := make([]string, len(r.SampleLines))
			for i, l := range r.SampleLines {
				lines[i] = l.String()
			}
			record := []string{
				report.ID,
				strconv.Itoa(pass + 1),
				s.Root,
				r.Location,
				r.Folder,
				r.DisplayName,
				strconv.Itoa(r.OccurrenceCount),
				strings.Join(lines, "\n"),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}
