package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/yildizm/mlstudio/internal/views"
)

// csvFormatter flattens the report into kind,name,value,detail rows
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(r *Report) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	if err := writer.Write([]string{"Kind", "Name", "Value", "Detail"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	var records [][]string
	for _, c := range r.Overview {
		records = append(records, []string{"overview", c.Title, c.Value, ""})
	}
	for _, e := range r.Missing {
		records = append(records, []string{"missing", e.Key, strconv.Itoa(e.Value), ""})
	}
	if m := r.Model; m != nil {
		for _, e := range m.Ranking.Entries {
			detail := fmt.Sprintf("%.1f%%", e.Width)
			if e.Winner {
				detail += " best"
			}
			records = append(records, []string{"model", e.Name, views.ScoreLabel(e.Score), detail})
		}
		for _, c := range m.Metrics {
			records = append(records, []string{"metric", c.Title, c.Value, ""})
		}
		if m.AUC != "" {
			records = append(records, []string{"metric", "ROC", m.AUC, ""})
		}
	}
	for i, fi := range r.Features {
		records = append(records, []string{"feature", fi.Feature, views.ScoreLabel(fi.Importance), fmt.Sprintf("rank %d", i+1)})
	}

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return b.Bytes(), nil
}
