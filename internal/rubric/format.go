package rubric

import (
	"math"
	"strconv"
	"strings"
)

// Ledger cell formatting. The column values follow the conventions the
// historical ledgers were written with, so rows produced by this engine
// diff cleanly against existing files: True/False booleans, integers bare,
// floats in shortest round-trip form but never without a fractional part.

// FormatBool renders a ledger boolean cell.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// FormatInt renders a ledger integer cell.
func FormatInt(n int) string {
	return strconv.Itoa(n)
}

/// FormatFloat renders a ledger float cell: shortest decimal form that round
// trips, with integral values keeping one fractional digit ("10.0", "0.6667").
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Round rounds half away from zero to the given number of decimal places.
// Rates use four places, aggregate scores two, coverage ratios three.
func Round(f float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(f*pow) / pow
}

// QuotedList renders a detail list in the historical ledger notation:
// ['a', 'b'].
func QuotedList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Truncate shortens a detail fragment to at most n characters.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
