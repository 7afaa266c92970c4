package xlbook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const stagedBaseName = "workbook"

// ReadSheetFromCSV reads one CSV file into a single sheet Book, the sheet
// being named DefaultSheetName unless WithSheetName says otherwise.
func ReadSheetFromCSV(filePath string, opts ...Option) (*Book, error) {
	params := NewParams(opts...)
	grid, err := ReadGridFile(filePath, WithParams(params))
	if err != nil {
		params.logger().WithField("file", filePath).Errorf("xlbook: cannot read csv: %v", err)
		return nil, err
	}
	return NewBook(NewSheet(params.sheetName(), grid)), nil
}

// ReadExcelSheets reads the spreadsheet at filePath and loads every sheet
// through LoadExcel.
func ReadExcelSheets(ctx context.Context, filePath string, opts ...Option) (*Book, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return LoadExcel(ctx, data, opts...)
}

// LoadExcel stages an in-memory spreadsheet to a temporary file, has the
// converter export each sheet as CSV and assembles the result. Content that
// is not an Office document, or a document without sheets, yields a nil
// Book and a nil error. Staged and exported files never outlive the call.
func LoadExcel(ctx context.Context, data []byte, opts ...Option) (*Book, error) {
	params := NewParams(opts...)
	log := params.logger()

	if !IsOfficeFile(data) {
		log.Warn("xlbook: not an Office file, not extracting sheets")
		return nil, nil
	}

	workDir, err := os.MkdirTemp(params.TempDir, "xlbook_")
	if err != nil {
		return nil, fmt.Errorf("%w: stage workbook: %w", ErrIO, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("xlbook: remove %s: %v", workDir, err)
		}
	}()

	staged := filepath.Join(workDir, stagedBaseName+ProbeOffice(data).Ext())
	if err := os.WriteFile(staged, data, 0600); err != nil {
		return nil, fmt.Errorf("%w: stage workbook: %w", ErrIO, err)
	}
	outDir := filepath.Join(workDir, "sheets")
	if err := os.Mkdir(outDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: stage workbook: %w", ErrIO, err)
	}

	files, err := params.converter().Convert(ctx, staged, outDir)
	if err != nil {
		// some sheets may already be on disk
		removeFiles(files, log)
		log.WithField("workbook", staged).Errorf("xlbook: conversion failed: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	log.WithFields(logrus.Fields{"workbook": staged, "sheets": len(files)}).Debug("xlbook: workbook converted")

	return Assemble(files, WithParams(params))
}
