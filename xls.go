package xlbook

import (
	"errors"
	"fmt"
	"os"

	exls "github.com/extrame/xls"
	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/record"
	"github.com/shakinm/xlsReader/xls/structure"
)

type (
	xlsSource struct {
		workbook xls.Workbook
	}

	// extrameSource reads the BIFF files xlsReader rejects.
	extrameSource struct {
		workbook *exls.WorkBook
		file     *os.File
	}
)

// xlsCellText renders a cell as text; blanks and the placeholders xlsReader
// puts in merged areas are empty.
func xlsCellText(data structure.CellData) string {
	if data == nil {
		return ""
	}
	switch data.(type) {
	case *record.Blank, *record.FakeBlank:
		return ""
	default:
		return data.GetString()
	}
}

// openXlsSource rejects compound files whose header is not strictly
// conformant; those are left to extrame/xls.
func openXlsSource(filePath string) (src sheetSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("excel/xls: corrupt workbook: %v", r)
		}
	}()
	workbook, err := xls.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("excel/xls: %w", err)
	}
	return &xlsSource{workbook: workbook}, nil
}

func (x *xlsSource) SheetNames() []string {
	n := x.workbook.GetNumberSheets()
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		sheet, err := x.workbook.GetSheet(i)
		if err != nil || sheet == nil {
			names = append(names, "")
			continue
		}
		names = append(names, sheet.GetName())
	}
	return names
}

func (x *xlsSource) SheetRows(index int) ([][]string, error) {
	if index < 0 || index >= x.workbook.GetNumberSheets() {
		return nil, ErrOutOfRange
	}
	sheet, err := x.workbook.GetSheet(index)
	if err != nil {
		return nil, fmt.Errorf("excel/xls: %w", err)
	}
	if sheet == nil {
		return nil, nil
	}
	rowCount := sheet.GetNumberRows()
	rows := make([][]string, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		row, err := sheet.GetRow(i)
		if err != nil {
			return nil, fmt.Errorf("excel/xls: row %d: %w", i, err)
		}
		cols := row.GetCols()
		values := make([]string, len(cols))
		for j, c := range cols {
			values[j] = xlsCellText(c)
		}
		rows = append(rows, values)
	}
	return rows, nil
}

func (x *xlsSource) Close() error {
	return nil
}

// openExtrameSource keeps the file open, sheets are parsed on first access.
func openExtrameSource(filePath string) (sheetSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("excel/xls: %w", err)
	}
	workbook, err := exls.OpenReader(f, "utf-8")
	if err == nil && workbook == nil {
		err = errors.New("no Workbook stream")
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("excel/xls: %w", err)
	}
	return &extrameSource{workbook: workbook, file: f}, nil
}

func (x *extrameSource) SheetNames() []string {
	n := x.workbook.NumSheets()
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if sheet := x.workbook.GetSheet(i); sheet != nil {
			names = append(names, sheet.Name)
		} else {
			names = append(names, "")
		}
	}
	return names
}

func (x *extrameSource) SheetRows(index int) ([][]string, error) {
	if index < 0 || index >= x.workbook.NumSheets() {
		return nil, ErrOutOfRange
	}
	sheet := x.workbook.GetSheet(index)
	if sheet == nil {
		return nil, nil
	}
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := extrameRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		values := make([]string, row.LastCol())
		for j := range values {
			values[j] = row.Col(j)
		}
		rows = append(rows, values)
	}
	return rows, nil
}

// extrameRow is nil for a row the sheet has no record of; WorkSheet.Row
// dereferences the missing entry.
func extrameRow(sheet *exls.WorkSheet, i int) (row *exls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func (x *extrameSource) Close() error {
	return x.file.Close()
}
