package xlbook

import (
	"fmt"

	xlsb "github.com/TsubasaBE/go-xlsb"
	"github.com/TsubasaBE/go-xlsb/workbook"
)

type xlsbSource struct {
	names []string
	wb    *workbook.Workbook
}

func openXlsbSource(filePath string) (sheetSource, error) {
	wb, err := xlsb.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("excel/xlsb: %w", err)
	}
	return &xlsbSource{names: wb.Sheets(), wb: wb}, nil
}

func (x *xlsbSource) SheetNames() []string {
	return x.names
}

// SheetRows renders every cell with its number format, the text a CSV export
// from Excel would carry.
func (x *xlsbSource) SheetRows(index int) ([][]string, error) {
	if index < 0 || index >= len(x.names) {
		return nil, ErrOutOfRange
	}
	ws, err := x.wb.Sheet(index + 1)
	if err != nil {
		return nil, fmt.Errorf("excel/xlsb: %w", err)
	}
	var rows [][]string
	for row := range ws.Rows(false) {
		values := make([]string, len(row))
		for j, cell := range row {
			values[j] = x.wb.FormatCell(cell.V, cell.Style)
		}
		rows = append(rows, values)
	}
	return rows, nil
}

func (x *xlsbSource) Close() error {
	if err := x.wb.Close(); err != nil {
		return fmt.Errorf("excel/xlsb: %w", err)
	}
	return nil
}
