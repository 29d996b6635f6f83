// Package cli renders explorer rows as aligned text tables.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	columnGap     = "  "
	ellipsis      = "…"
	defaultMaxCol = 40
)

// Table is a text table whose columns align by display width, so wide
// Japanese titles line up with ASCII ones.
type Table struct {
	headers []string
	rows    [][]string
	maxCol  int
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, maxCol: defaultMaxCol}
}

// SetMaxColumnWidth truncates cells wider than n display cells. n < 1 disables truncation.
func (t *Table) SetMaxColumnWidth(n int) {
	t.maxCol = n
}

// Append adds a row. Missing cells render empty and extra cells are dropped.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Render writes the table to w.
func (t *Table) Render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	cells := make([][]string, 0, len(t.rows)+1)
	cells = append(cells, t.headers)
	for _, r := range t.rows {
		row := make([]string, len(r))
		for i, c := range r {
			row[i] = t.clip(c)
		}
		cells = append(cells, row)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}

	var b strings.Builder
	for n, row := range cells {
		for i, c := range row {
			if i > 0 {
				b.WriteString(columnGap)
			}
			if i == len(row)-1 {
				b.WriteString(c)
			} else {
				b.WriteString(runewidth.FillRight(c, widths[i]))
			}
		}
		b.WriteByte('\n')
		if n == 0 {
			for i, wd := range widths {
				if i > 0 {
					b.WriteString(columnGap)
				}
				b.WriteString(strings.Repeat("-", wd))
			}
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

func (t *Table) clip(s string) string {
	if t.maxCol < 1 || runewidth.StringWidth(s) <= t.maxCol {
		return s
	}
	return runewidth.Truncate(s, t.maxCol, ellipsis)
}
