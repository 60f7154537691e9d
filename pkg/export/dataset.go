package export

import "fmt"

// Dataset is an ordered table. Every row must have one cell per header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// AddRow appends a row, padding or truncating it to the header width.
func (d *Dataset) AddRow(cells ...string) {
	row := make([]string, len(d.Headers))
	copy(row, cells)
	d.Rows = append(d.Rows, row)
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}
