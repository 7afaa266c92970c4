package xlbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

type xlsxSource struct {
	names []string
	f     *excelize.File
}

func openXlsxSource(filePath string) (sheetSource, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("excel/xlsx: %w", err)
	}
	return &xlsxSource{names: f.GetSheetList(), f: f}, nil
}

func (x *xlsxSource) SheetNames() []string {
	return x.names
}

func (x *xlsxSource) SheetRows(index int) ([][]string, error) {
	if index < 0 || index >= len(x.names) {
		return nil, ErrOutOfRange
	}
	rows, err := x.f.GetRows(x.names[index])
	if err != nil {
		return nil, fmt.Errorf("excel/xlsx: %w", err)
	}
	return rows, nil
}

func (x *xlsxSource) Close() error {
	if err := x.f.Close(); err != nil {
		return fmt.Errorf("excel/xlsx: %w", err)
	}
	return nil
}
