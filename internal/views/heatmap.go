package views

import (
	"fmt"
	"math"
)

// RGBA is a display color with opacity in [0, 1]
type RGBA struct {
	R, G, B uint8
	A       float64
}

// Hex returns the color without opacity as #rrggbb
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// CSS returns the color as an rgba() expression
func (c RGBA) CSS() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.2f)", c.R, c.G, c.B, c.A)
}

// Heatmap hues: positive correlations use the primary hue, negative ones the alert hue
var (
	PositiveHue = RGBA{R: 124, G: 58, B: 237}
	NegativeHue = RGBA{R: 239, G: 68, B: 68}
)

// HeatCell is one correlation cell ready for display
type HeatCell struct {
	Row    string  `json:"row"`
	Col    string  `json:"col"`
	Value  float64 `json:"value"`
	Label  string  `json:"label"`
	Color  RGBA    `json:"color"`
	Bright bool    `json:"bright"`
}

// Heatmap is a square correlation grid in column order
type Heatmap struct {
	Columns []string     `json:"columns"`
	Cells   [][]HeatCell `json:"cells"`
}

// CorrelationColor maps a coefficient to its cell color. The value is clamped to
// [-1, 1]; opacity is |v| rounded to two decimals. Non-finite values map to zero.
func CorrelationColor(v float64) RGBA {
	v = clampUnit(v)
	hue := NegativeHue
	if v > 0 {
		hue = PositiveHue
	}
	hue.A = math.Round(math.Abs(v)*100) / 100
	return hue
}

// CorrelationLabel renders a coefficient with one decimal
func CorrelationLabel(v float64) string {
	v = clampUnit(v)
	return fmt.Sprintf("%.1f", math.Round(v*100)/100)
}

// CorrelationCell builds a display cell for a single coefficient
func CorrelationCell(row, col string, v float64) HeatCell {
	c := clampUnit(v)
	return HeatCell{
		Row:    row,
		Col:    col,
		Value:  c,
		Label:  CorrelationLabel(c),
		Color:  CorrelationColor(c),
		Bright: math.Abs(c) > 0.5,
	}
}

// BuildHeatmap lays out the correlation matrix in the given column order.
// Missing pairs render as zero, as the service fills undefined coefficients with 0.
func BuildHeatmap(columns []string, corr map[string]map[string]float64) *Heatmap {
	h := &Heatmap{
		Columns: append([]string(nil), columns...),
		Cells:   make([][]HeatCell, len(columns)),
	}
	for i, row := range columns {
		h.Cells[i] = make([]HeatCell, len(columns))
		for j, col := range columns {
			h.Cells[i][j] = CorrelationCell(row, col, corr[row][col])
		}
	}
	return h
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
