package xlbook

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
)

const (
	// DefaultSheetName names a sheet that carries no name of its own, such as
	// the only sheet of a workbook read from a plain CSV file.
	DefaultSheetName = "Sheet1"
)

type (
	Row interface {
		ColumnCount() int
		GetColumn(index int) (string, error)
		GetInt64Column(index int) (int64, error)
		GetFloat64Column(index int) (float64, error)
		GetBoolColumn(index int) (bool, error)
		AllColumns() iter.Seq2[int, string]
	}

	// Converter turns a spreadsheet file into one CSV file per sheet, written
	// into outDir and named after SheetFileName. A nil slice with a nil error
	// means the source holds no sheets the converter can export.
	Converter interface {
		Convert(ctx context.Context, srcPath, outDir string) ([]string, error)
	}
)

var (
	ErrNotFound   = errors.New("xlbook: not found")
	ErrOutOfRange = errors.New("xlbook: out of range")
	ErrIO         = errors.New("xlbook: io failure")
	ErrParse      = errors.New("xlbook: parse failure")
	ErrConversion = errors.New("xlbook: conversion failure")
	ErrParseError = errors.New("cell value parse error")
	// ErrOrdinalGap reports a converter output whose ordinals are not
	// contiguous from 0.
	ErrOrdinalGap       = fmt.Errorf("%w: sheet ordinal", ErrNotFound)
	ErrDuplicateOrdinal = errors.New("xlbook: duplicate sheet ordinal")
	ErrBadSheetFileName = errors.New("xlbook: malformed sheet file name")
	ErrUnsupported      = errors.New("xlbook: unsupported format")
)

// Open reads a workbook from filePath. A ".csv" file becomes a single sheet
// book; anything else goes through the configured Converter. Like LoadExcel,
// a file that is not an Office document yields a nil book and a nil error.
func Open(ctx context.Context, filePath string, opts ...Option) (*Book, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".csv":
		return ReadSheetFromCSV(filePath, opts...)
	default:
		return ReadExcelSheets(ctx, filePath, opts...)
	}
}
