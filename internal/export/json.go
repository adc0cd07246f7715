package export

import (
	"encoding/json"
	"fmt"

	"github.com/harrison/archsearch/internal/models"
)

// JSONExporter exports a report in JSON format
type JSONExporter struct {
	Pretty bool // Enable pretty printing with indentation
}

// Export converts the report to JSON. LoadJSON reads the output back.
func (je *JSONExporter) Export(report *models.RunReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report cannot be nil")
	}

	var data []byte
	var err error
	if je.Pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}
