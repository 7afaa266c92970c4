package xlbook

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// fakeSoffice writes an executable that stands in for LibreOffice.
func fakeSoffice(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script converter")
	}
	path := filepath.Join(t.TempDir(), "soffice")
	script := "#!/bin/sh\n" +
		"out=''\nsrc=''\n" +
		"while [ $# -gt 0 ]; do\n" +
		"  case \"$1\" in\n" +
		"    --outdir) out=\"$2\"; shift ;;\n" +
		"    *) src=\"$1\" ;;\n" +
		"  esac\n" +
		"  shift\n" +
		"done\n" +
		"stem=$(basename \"$src\"); stem=${stem%.*}\n" +
		body
	if err := os.WriteFile(path, []byte(script), 0700); err != nil {
		t.Fatal(err)
	}
	return path
}

func twoSheetWorkbook(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "workbook.xlsx")
	data := xlsxBytes(t, func(f *excelize.File) {
		if _, err := f.NewSheet("My Data"); err != nil {
			t.Fatal(err)
		}
	})
	if err := os.WriteFile(src, data, 0600); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestSofficeConverter(t *testing.T) {
	bin := fakeSoffice(t, `echo 'a,"b,c"' > "$out/$stem-Sheet1.csv"
echo 'x' > "$out/$stem-My Data.csv"
echo "convert $src -> $out"
`)
	dir := t.TempDir()
	src := twoSheetWorkbook(t, dir)
	outDir := filepath.Join(dir, "sheets")
	if err := os.Mkdir(outDir, 0700); err != nil {
		t.Fatal(err)
	}

	conv := &SofficeConverter{Path: bin}
	files, err := conv.Convert(context.Background(), src, outDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for i, file := range files {
		sf, err := ParseSheetFileName(file)
		if err != nil {
			t.Fatal(err)
		}
		if sf.Ordinal != i {
			t.Fatalf("file %d has ordinal %d", i, sf.Ordinal)
		}
		names = append(names, sf.Name)
	}
	if !reflect.DeepEqual(names, []string{"Sheet1", "My Data"}) {
		t.Fatalf("names = %q", names)
	}

	book, err := Assemble(files)
	if err != nil {
		t.Fatal(err)
	}
	sheet, _ := book.SheetByName("Sheet1")
	if v, _ := sheet.Cell(0, 1); v != "b,c" {
		t.Fatalf("(0, 1) = %q", v)
	}
	assertEmptyDir(t, outDir)
}

func TestSofficeConverterFailure(t *testing.T) {
	bin := fakeSoffice(t, "echo 'source file could not be loaded' >&2\nexit 1\n")
	dir := t.TempDir()
	src := twoSheetWorkbook(t, dir)

	files, err := (&SofficeConverter{Path: bin}).Convert(context.Background(), src, dir)
	if err == nil || !strings.Contains(err.Error(), "could not be loaded") {
		t.Fatalf("expected the converter's stderr, got %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("no files expected, got %q", files)
	}
}

func TestSofficeConverterMissingOutput(t *testing.T) {
	bin := fakeSoffice(t, `echo 'a' > "$out/$stem-Sheet1.csv"
`)
	dir := t.TempDir()
	src := twoSheetWorkbook(t, dir)

	files, err := (&SofficeConverter{Path: bin}).Convert(context.Background(), src, dir)
	if err == nil {
		t.Fatal("a missing sheet export must fail the conversion")
	}
	removeFiles(files, discardLogger)
}

func TestSofficeConverterMultilineCell(t *testing.T) {
	bin := fakeSoffice(t, `printf 'a,"line one\r\nline two"\nb,c\n' > "$out/$stem-Sheet1.csv"
echo 'x' > "$out/$stem-My Data.csv"
`)
	dir := t.TempDir()
	src := twoSheetWorkbook(t, dir)

	files, err := (&SofficeConverter{Path: bin}).Convert(context.Background(), src, dir)
	if err != nil {
		t.Fatal(err)
	}
	book, err := Assemble(files)
	if err != nil {
		t.Fatal(err)
	}
	sheet, _ := book.SheetByName("Sheet1")
	if sheet.RowCount() != 2 {
		t.Fatalf("Sheet1 has %d rows", sheet.RowCount())
	}
	if v, _ := sheet.Cell(0, 1); v != "line one line two" {
		t.Fatalf("(0, 1) = %q", v)
	}
	if v, _ := sheet.Cell(1, 0); v != "b" {
		t.Fatalf("(1, 0) = %q", v)
	}
}
