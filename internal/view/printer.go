// Package view renders the cluster list and cluster detail views as text.
package view

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/fatih/color"
)

// ColorMode represents color output mode
type ColorMode int

const (
	// ColorAuto enables colors based on environment (default)
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever forces colors off
	ColorNever
)

// ParseColorMode parses a string into a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors determines whether to use colors based on mode and environment
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return !color.NoColor
	}
}

// Printer writes views to a terminal or any other writer.
type Printer struct {
	out       io.Writer
	useColors bool
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer, useColors bool) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out, useColors: useColors}
}

// Loading renders the placeholder shown while a fetch is in flight.
func (p *Printer) Loading() error {
	_, err := fmt.Fprintln(p.out, "Loading...")
	return err
}

func (p *Printer) printf(attrs []color.Attribute, format string, args ...any) error {
	if !p.useColors {
		_, err := fmt.Fprintf(p.out, format, args...)
		return err
	}
	c := color.New(attrs...)
	c.EnableColor()
	_, err := c.Fprintf(p.out, format, args...)
	return err
}

// Round rounds half up toward positive infinity, so 82.5 becomes 83 and
// -0.5 becomes 0. Non-finite scores render as 0 and results outside the
// int range are clamped.
func Round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r := math.Round(v)
	if r-v == -0.5 {
		// math.Round moves negative halves away from zero
		r++
	}
	switch {
	case r >= float64(math.MaxInt):
		return math.MaxInt
	case r <= float64(math.MinInt):
		return math.MinInt
	}
	return int(r)
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
