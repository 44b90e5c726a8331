package report

import "fmt"

// Formatter defines the interface for report output formatting
type Formatter interface {
	Format(r *Report) ([]byte, error)
}

// Output formats
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatCSV      = "csv"
)

// Formats lists the supported output formats
var Formats = []string{FormatText, FormatJSON, FormatMarkdown, FormatHTML, FormatCSV}

// New returns the formatter for format. color and emoji only affect text output.
func New(format string, color, emoji bool) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSON(), nil
	case FormatMarkdown, "md":
		return NewMarkdown(), nil
	case FormatHTML:
		return NewHTML(), nil
	case FormatCSV:
		return NewCSV(), nil
	case FormatText, "terminal", "":
		return NewTerminal(color, emoji), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
