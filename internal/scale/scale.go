// Package scale implements the two output scales compsize-compatible
// reports are rendered in: raw byte counts and the human-readable
// shift-by-ten scale compsize itself uses.
package scale

import (
	"fmt"
	"strconv"
	"strings"
)

// Scale selects how ExtentStat fields are rendered to text.
type Scale int

const (
	// Bytes prints the exact decimal byte count.
	Bytes Scale = iota
	// Human prints a shifted, unit-suffixed approximation.
	Human
)

const unitShift = 10 // right-shift per unit step, i.e. divide by 1024

// units mirrors compsize's own table: byte, kilo, mega, giga, tera, peta, exa.
var units = [...]byte{'B', 'K', 'M', 'G', 'T', 'P', 'E'}

// Format renders n according to s.
func Format(s Scale, n uint64) string {
	if s == Bytes {
		return strconv.FormatUint(n, 10) + "B"
	}
	return formatHuman(n)
}

// formatHuman repeatedly shifts n down by 1024 while it still dwarfs the
// next unit, matching compsize's own "NNNNu or N.Nu" rendering.
func formatHuman(n uint64) string {
	unit := 0
	for n > 10*1024 && unit < len(units)-1 {
		n >>= unitShift
		unit++
	}
	if n < 1024 {
		return fmt.Sprintf("%4d%c", n, units[unit])
	}
	// n is in [1024, 10*1024]; step once more and show one decimal place.
	tenths := (n * 10) >> unitShift
	whole := tenths / 10
	frac := tenths % 10
	return fmt.Sprintf("%d.%d%c", whole, frac, units[unit+1])
}

// Parse inverts Format for the Bytes scale only. Human-scale strings are
// lossy by construction and are not expected to round-trip.
func Parse(s string) (uint64, error) {
	s = strings.TrimSuffix(s, "B")
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("scale: parse %q: %w", s, err)
	}
	return n, nil
}
