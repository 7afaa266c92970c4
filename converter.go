package xlbook

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// sheetSource is a workbook opened by one of the format readers.
type sheetSource interface {
	SheetNames() []string
	SheetRows(index int) ([][]string, error)
	Close() error
}

// NativeConverter exports sheets in-process: xlsx with excelize, xls with
// xlsReader (falling back to extrame/xls) and xlsb with go-xlsb.
type NativeConverter struct {
	Logger logrus.FieldLogger
}

func (c *NativeConverter) log() logrus.FieldLogger {
	if c.Logger == nil {
		return discardLogger
	}
	return c.Logger
}

func (c *NativeConverter) Convert(ctx context.Context, srcPath, outDir string) ([]string, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("xlbook/convert: %w", err)
	}
	kind := ProbeOffice(data)
	if !kind.IsSpreadsheet() {
		c.log().WithField("kind", kind).Debug("xlbook/convert: not a spreadsheet, no sheets")
		return nil, nil
	}

	src, err := openSource(kind, srcPath, c.log())
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = src.Close()
	}()

	return exportSheets(ctx, src, filepath.Base(srcPath), outDir, c.log())
}

func openSource(kind OfficeKind, path string, log logrus.FieldLogger) (sheetSource, error) {
	switch kind {
	case OfficeXLSX:
		return openXlsxSource(path)
	case OfficeXLS:
		src, err := openXlsSource(path)
		if err == nil {
			return src, nil
		}
		log.Debugf("xlbook/convert: xlsReader failed, trying extrame/xls: %v", err)
		return openExtrameSource(path)
	case OfficeXLSB:
		return openXlsbSource(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
}

// sheetNamesOf lists the sheet names of a spreadsheet file in workbook
// order.
func sheetNamesOf(path string, log logrus.FieldLogger) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kind := ProbeOffice(data)
	if !kind.IsSpreadsheet() {
		return nil, nil
	}
	src, err := openSource(kind, path, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = src.Close()
	}()
	return src.SheetNames(), nil
}

func exportSheets(ctx context.Context, src sheetSource, base, outDir string, log logrus.FieldLogger) ([]string, error) {
	var files []string
	for i, name := range src.SheetNames() {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		rows, err := src.SheetRows(i)
		if err != nil {
			return files, fmt.Errorf("xlbook/convert: sheet %d %q: %w", i, name, err)
		}
		out := filepath.Join(outDir, SheetFileName(base, i, exportName(name)))
		files = append(files, out)
		if err := writeSheetCSV(out, rows); err != nil {
			return files, fmt.Errorf("xlbook/convert: sheet %d %q: %w", i, name, err)
		}
		log.WithFields(logrus.Fields{"ordinal": i, "sheet": name, "rows": len(rows)}).Debug("xlbook/convert: sheet exported")
	}
	return files, nil
}

// exportName drops the spaces of a name made mostly of padding.
func exportName(name string) string {
	if strings.Count(name, " ") > 10 {
		return strings.ReplaceAll(name, " ", "")
	}
	return name
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// writeSheetCSV writes one record per line; line breaks inside a value are
// flattened to spaces, the grid parser is line oriented.
func writeSheetCSV(path string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = lineBreaks.Replace(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// flattenSheetCSV rewrites a CSV export holding quoted values that span
// lines, each break inside quotes becoming a space. Other files are left
// untouched.
func flattenSheetCSV(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	flat, changed := flattenQuotedBreaks(data)
	if !changed {
		return nil
	}
	return os.WriteFile(path, flat, 0600)
}

// flattenQuotedBreaks tracks quotes the way the grid parser does, a doubled
// quote toggling twice. A CRLF inside quotes becomes a single space.
func flattenQuotedBreaks(data []byte) ([]byte, bool) {
	var out []byte
	quoted := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '"':
			quoted = !quoted
		case quoted && (c == '\r' || c == '\n'):
			if out == nil {
				out = append(make([]byte, 0, len(data)), data[:i]...)
			}
			if c == '\r' && i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			out = append(out, ' ')
			continue
		}
		if out != nil {
			out = append(out, c)
		}
	}
	if out == nil {
		return data, false
	}
	return out, true
}
