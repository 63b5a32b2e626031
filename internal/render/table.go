// Package render turns query results into text: aligned tables for
// the transcript, CSV for exports, TSV for the clipboard. Pure
// functions, no terminal state.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/pondside/parley/internal/db"
)

// maxColumnWidth caps any single column so one long cell cannot push
// the rest of the row off screen. Clipped cells end in an ellipsis.
const maxColumnWidth = 40

// Table renders a result as an aligned text table followed by a
// footer line. Non-query results render as just the footer. The width
// argument bounds the whole table; columns are clipped right-to-left
// when they do not fit.
func Table(res *db.Result, width int) string {
	if len(res.Columns) == 0 {
		return Footer(res)
	}

	widths := columnWidths(res, width)

	var b strings.Builder
	writeRow(&b, res.Columns, widths)
	for i, w := range widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("─", w))
	}
	b.WriteString("\n")
	for _, row := range res.Rows {
		writeRow(&b, row, widths)
	}
	b.WriteString(Footer(res))
	return b.String()
}

// Footer is the one-line summary under a table: row count,
// truncation, rows affected, elapsed time.
func Footer(res *db.Result) string {
	switch {
	case len(res.Columns) > 0 && res.Truncated:
		return fmt.Sprintf("%d rows (truncated) in %s", res.RowCount, formatElapsed(res.Elapsed))
	case len(res.Columns) > 0:
		return fmt.Sprintf("%s in %s", plural(res.RowCount, "row"), formatElapsed(res.Elapsed))
	default:
		return fmt.Sprintf("%s affected in %s", plural(int(res.RowsAffected), "row"), formatElapsed(res.Elapsed))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

// columnWidths sizes each column to its widest cell, capped per
// column, then shrinks from the last column forward until the table
// fits the given width.
func columnWidths(res *db.Result, width int) []int {
	widths := make([]int, len(res.Columns))
	for i, h := range res.Columns {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range res.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
		if widths[i] < 1 {
			widths[i] = 1
		}
	}

	if width <= 0 {
		return widths
	}
	const sep = 2
	total := func() int {
		t := sep * (len(widths) - 1)
		for _, w := range widths {
			t += w
		}
		return t
	}
	// Shrink the rightmost shrinkable column first; never below the
	// ellipsis minimum.
	const minWidth = 4
	for total() > width {
		shrunk := false
		for i := len(widths) - 1; i >= 0; i-- {
			if widths[i] > minWidth {
				widths[i]--
				shrunk = true
				break
			}
		}
		if !shrunk {
			break
		}
	}
	return widths
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, w := range widths {
		if i > 0 {
			b.WriteString("  ")
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if runewidth.StringWidth(cell) > w {
			cell = runewidth.Truncate(cell, w, "…")
		}
		b.WriteString(cell)
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", w-runewidth.StringWidth(cell)))
		}
	}
	b.WriteString("\n")
}
