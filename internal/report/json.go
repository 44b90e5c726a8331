package report

import "encoding/json"

// jsonFormatter formats a report as indented JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Format(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
