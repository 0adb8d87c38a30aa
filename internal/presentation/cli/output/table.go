package output

import (
	"fmt"
	"strings"
)

// Alignment is the horizontal alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// columnGap separates table columns.
const columnGap = "  "

// TableColumn describes one column. Width is a minimum; columns grow to fit
// their widest cell.
type TableColumn struct {
	Header string
	Width  int
	Align  Alignment
}

// TableData is a table to print. Cells beyond the last column are ignored.
type TableData struct {
	Columns []TableColumn
	Rows    [][]string
}

// Table prints data with a bold header and a dashed rule under it.
func (f *Formatter) Table(data TableData) error {
	if len(data.Columns) == 0 {
		return nil
	}

	widths := columnWidths(data)

	headers := make([]string, len(data.Columns))
	rules := make([]string, len(data.Columns))
	for i, col := range data.Columns {
		headers[i] = col.Header
		rules[i] = strings.Repeat("-", widths[i])
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := fmt.Fprintln(f.w, paint(joinCells(headers, data.Columns, widths), ColorBold, f.color)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f.w, strings.Join(rules, columnGap)); err != nil {
		return err
	}
	for _, row := range data.Rows {
		if _, err := fmt.Fprintln(f.w, joinCells(row, data.Columns, widths)); err != nil {
			return err
		}
	}
	return nil
}

func columnWidths(data TableData) []int {
	widths := make([]int, len(data.Columns))
	for i, col := range data.Columns {
		widths[i] = max(col.Width, len(col.Header))
	}
	for _, row := range data.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], len(row[i]))
		}
	}
	return widths
}

func joinCells(cells []string, cols []TableColumn, widths []int) string {
	n := min(len(cells), len(cols))
	padded := make([]string, n)
	for i := 0; i < n; i++ {
		padded[i] = pad(cells[i], widths[i], cols[i].Align)
	}
	return strings.Join(padded, columnGap)
}

// pad fills text with spaces up to width. Longer text is left as is.
func pad(text string, width int, align Alignment) string {
	fill := width - len(text)
	if fill <= 0 {
		return text
	}
	if align == AlignRight {
		return strings.Repeat(" ", fill) + text
	}
	return text + strings.Repeat(" ", fill)
}
