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

const stagedDocumentName = "document"

type (
	// Document is the text content of a Word document.
	Document struct {
		Text   string  // paragraphs in reading order, one per line
		Tables []Table // every table, nested ones included
	}

	// Table holds the cell texts of one table, row by row.
	Table [][]string

	// DocumentConverter turns a legacy .doc file into a docx package written
	// into outDir and returns its path. A Converter that also implements
	// DocumentConverter lets LoadDocument read .doc files.
	DocumentConverter interface {
		ConvertDocument(ctx context.Context, srcPath, outDir string) (string, error)
	}
)

// ReadDocument reads the Word document at filePath through LoadDocument.
func ReadDocument(ctx context.Context, filePath string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return LoadDocument(ctx, data, opts...)
}

// LoadDocument extracts the text and the tables of an in-memory Word
// document. Content that is not a Word document yields a nil Document and a
// nil error. A .docx is parsed in process; a .doc needs the configured
// Converter to be a DocumentConverter.
func LoadDocument(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	params := NewParams(opts...)
	log := params.logger()

	switch kind := ProbeOffice(data); kind {
	case OfficeDOCX:
		return ParseDocx(data)
	case OfficeDOC:
		conv, ok := params.converter().(DocumentConverter)
		if !ok {
			return nil, fmt.Errorf("%w: %s without a document converter", ErrUnsupported, kind)
		}
		return convertDocument(ctx, conv, data, params)
	default:
		log.WithField("kind", kind).Warn("xlbook: not a Word document, no text")
		return nil, nil
	}
}

func convertDocument(ctx context.Context, conv DocumentConverter, data []byte, params *Params) (*Document, error) {
	log := params.logger()
	workDir, err := os.MkdirTemp(params.TempDir, "xlbook_")
	if err != nil {
		return nil, fmt.Errorf("%w: stage document: %w", ErrIO, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("xlbook: remove %s: %v", workDir, err)
		}
	}()

	staged := filepath.Join(workDir, stagedDocumentName+OfficeDOC.Ext())
	if err := os.WriteFile(staged, data, 0600); err != nil {
		return nil, fmt.Errorf("%w: stage document: %w", ErrIO, err)
	}
	outDir := filepath.Join(workDir, "docx")
	if err := os.Mkdir(outDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: stage document: %w", ErrIO, err)
	}

	converted, err := conv.ConvertDocument(ctx, staged, outDir)
	if err != nil {
		log.WithField("document", staged).Errorf("xlbook: conversion failed: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	docx, err := os.ReadFile(converted)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	log.WithFields(logrus.Fields{"document": staged, "docx": converted}).Debug("xlbook: document converted")
	return ParseDocx(docx)
}
