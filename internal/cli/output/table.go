package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/marmos91/mtpfs/internal/bytesize"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	// Headers returns the column headers for the table.
	Headers() []string
	// Rows returns the data rows for the table.
	Rows() [][]string
}

// ColumnAligner is optionally implemented by a TableRenderer to align
// columns. Values are tablewriter alignments.
type ColumnAligner interface {
	Alignments() []int
}

// PrintTable writes data as a formatted table to the writer.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := newTable(w)
	table.SetHeader(data.Headers())
	table.SetAutoFormatHeaders(true)
	table.SetColumnSeparator("")

	if a, ok := data.(ColumnAligner); ok {
		table.SetColumnAlignment(a.Alignments())
	}

	table.AppendBulk(data.Rows())
	table.Render()
	return nil
}

// PrintPairs prints aligned "key: value" lines.
func PrintPairs(w io.Writer, pairs [][2]string) error {
	table := newTable(w)
	table.SetAutoFormatHeaders(false)
	table.SetColumnSeparator(":")

	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}

	table.Render()
	return nil
}

// newTable returns a borderless, left aligned table writer.
func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// TableData is a simple implementation of TableRenderer for ad-hoc tables.
type TableData struct {
	headers []string
	rows    [][]string
	align   []int
}

// NewTableData creates a new TableData with the given headers.
func NewTableData(headers ...string) *TableData {
	return &TableData{
		headers: headers,
		rows:    make([][]string, 0),
	}
}

// AddRow adds a row to the table.
func (t *TableData) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// AlignRight right-aligns the given columns, e.g. sizes.
func (t *TableData) AlignRight(cols ...int) *TableData {
	if t.align == nil {
		t.align = make([]int, len(t.headers))
		for i := range t.align {
			t.align[i] = tablewriter.ALIGN_LEFT
		}
	}
	for _, c := range cols {
		if c >= 0 && c < len(t.align) {
			t.align[c] = tablewriter.ALIGN_RIGHT
		}
	}
	return t
}

// Headers implements TableRenderer.
func (t *TableData) Headers() []string {
	return t.headers
}

// Rows implements TableRenderer.
func (t *TableData) Rows() [][]string {
	return t.rows
}

// Alignments implements ColumnAligner. Nil leaves every column left aligned.
func (t *TableData) Alignments() []int {
	return t.align
}

// HumanSize formats a byte count for table cells.
func HumanSize(n uint64) string {
	return bytesize.ByteSize(n).String()
}
