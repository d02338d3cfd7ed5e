package tui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxCellWidth caps a column at this many visible characters; longer cells
// are truncated with an ellipsis so one long rule detail cannot blow up the
// whole table.
const MaxCellWidth = 60

// RenderGrid writes an auto-sized table: every column is as wide as its
// widest cell (capped at MaxCellWidth), the header row is styled bold, and
// columns are separated by two spaces.
func RenderGrid(w io.Writer, headers []string, rows [][]string) {
	styles := NewTableStyles()
	widths := columnWidths(headers, rows)

	parts := make([]string, len(headers))
	for i, h := range headers {
		parts[i] = styles.Header.Render(padCell(h, widths[i]))
	}
	_, _ = fmt.Fprintln(w, strings.Join(parts, "  "))

	for _, row := range rows {
		parts = parts[:0]
		for i, width := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			parts = append(parts, padCell(cell, width))
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
}

// columnWidths sizes each column to its widest cell, header included.
func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i, w := range widths {
		if w > MaxCellWidth {
			widths[i] = MaxCellWidth
		}
	}
	return widths
}

// padCell pads a cell to width, truncating with an ellipsis when the cell is
// wider than the column.
func padCell(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		if width <= 1 {
			return string([]rune(s)[:width])
		}
		return string([]rune(s)[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-n)
}
