package xlbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
)

// Assemble builds a Book from converter output files named after
// SheetFileName. Sheets are ordered by the ordinal in each name, never by
// the order of files. Ordinals must run from 0 without gaps.
//
// The files are removed before Assemble returns, whatever the outcome. No
// files at all is not an error: the result is a nil Book.
func Assemble(files []string, opts ...Option) (*Book, error) {
	params := NewParams(opts...)
	log := params.logger()
	defer removeFiles(files, log)

	if len(files) == 0 {
		log.Debug("xlbook: converter produced no sheets")
		return nil, nil
	}

	byOrdinal := make(map[int]*Sheet, len(files))
	for _, file := range files {
		sf, err := ParseSheetFileName(file)
		if err != nil {
			return nil, &AssemblyError{File: file, Err: err}
		}
		if _, dup := byOrdinal[sf.Ordinal]; dup {
			return nil, &AssemblyError{File: file, Err: fmt.Errorf("%w: %d", ErrDuplicateOrdinal, sf.Ordinal)}
		}

		// every converter output holds exactly one sheet
		single, err := ReadSheetFromCSV(file, WithParams(params))
		if err != nil {
			return nil, &AssemblyError{File: file, Err: err}
		}
		first, err := single.SheetByIndex(0)
		if err != nil {
			return nil, &AssemblyError{File: file, Err: err}
		}

		byOrdinal[sf.Ordinal] = NewSheet(sf.Name, first.Cells())
		log.WithFields(logrus.Fields{"ordinal": sf.Ordinal, "sheet": sf.Name, "cells": first.Cells().Len()}).
			Debug("xlbook: sheet loaded")
	}

	sheets := make([]*Sheet, 0, len(byOrdinal))
	for i := 0; i < len(byOrdinal); i++ {
		sheet, ok := byOrdinal[i]
		if !ok {
			return nil, &AssemblyError{Err: fmt.Errorf("%w %d missing from %d sheets", ErrOrdinalGap, i, len(byOrdinal))}
		}
		sheets = append(sheets, sheet)
	}
	return NewBook(sheets...), nil
}

func removeFiles(files []string, log logrus.FieldLogger) {
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("xlbook: remove %s: %v", f, err)
		}
	}
}
