package xlbook

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultSofficePath    = "soffice"
	DefaultSofficeTimeout = 2 * time.Minute
	// comma separated, double quoted, UTF-8, all sheets (-1)
	sofficeCSVFilter  = "csv:Text - txt - csv (StarCalc):44,34,76,1,,0,false,true,false,false,false,-1"
	sofficeDocxFilter = "docx:MS Word 2007 XML"
)

// SofficeConverter exports sheets with a headless LibreOffice. LibreOffice
// names its per-sheet outputs <stem>-<sheet>.csv; they are renamed after
// SheetFileName using the sheet order read from the workbook itself, and
// values spanning lines are flattened like NativeConverter does.
//
// It is a DocumentConverter too, saving .doc files as docx.
//
// A LibreOffice profile serves one conversion at a time, so calls on the
// same SofficeConverter are serialized.
type SofficeConverter struct {
	Path    string        // soffice binary, DefaultSofficePath when empty
	Timeout time.Duration // per conversion, DefaultSofficeTimeout when zero
	Logger  logrus.FieldLogger

	mu sync.Mutex
}

func (c *SofficeConverter) log() logrus.FieldLogger {
	if c.Logger == nil {
		return discardLogger
	}
	return c.Logger
}

func (c *SofficeConverter) binary() string {
	if c.Path == "" {
		return DefaultSofficePath
	}
	return c.Path
}

func (c *SofficeConverter) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultSofficeTimeout
	}
	return c.Timeout
}

func (c *SofficeConverter) Convert(ctx context.Context, srcPath, outDir string) ([]string, error) {
	names, err := sheetNamesOf(srcPath, c.log())
	if err != nil {
		return nil, fmt.Errorf("xlbook/soffice: list sheets: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rawDir, err := os.MkdirTemp(outDir, "soffice_")
	if err != nil {
		return nil, fmt.Errorf("xlbook/soffice: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(rawDir)
	}()

	if err := c.run(ctx, srcPath, rawDir, sofficeCSVFilter); err != nil {
		return nil, err
	}

	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	files := make([]string, 0, len(names))
	for i, name := range names {
		exported := filepath.Join(rawDir, stem+"-"+name+".csv")
		if len(names) == 1 {
			if _, err := os.Stat(exported); err != nil {
				// older releases ignore the sheet parameter for one sheet books
				exported = filepath.Join(rawDir, stem+".csv")
			}
		}
		out := filepath.Join(outDir, SheetFileName(base, i, exportName(name)))
		if err := os.Rename(exported, out); err != nil {
			return files, fmt.Errorf("xlbook/soffice: sheet %d %q: %w", i, name, err)
		}
		files = append(files, out)
		if err := flattenSheetCSV(out); err != nil {
			c.log().WithField("file", out).Warnf("xlbook/soffice: export kept as written: %v", err)
		}
	}
	return files, nil
}

func (c *SofficeConverter) ConvertDocument(ctx context.Context, srcPath, outDir string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rawDir, err := os.MkdirTemp(outDir, "soffice_")
	if err != nil {
		return "", fmt.Errorf("xlbook/soffice: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(rawDir)
	}()

	if err := c.run(ctx, srcPath, rawDir, sofficeDocxFilter); err != nil {
		return "", err
	}
	base := filepath.Base(srcPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + OfficeDOCX.Ext()
	out := filepath.Join(outDir, name)
	if err := os.Rename(filepath.Join(rawDir, name), out); err != nil {
		return "", fmt.Errorf("xlbook/soffice: %w", err)
	}
	return out, nil
}

func (c *SofficeConverter) run(ctx context.Context, srcPath, outDir, filter string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	profile := filepath.Join(outDir, "profile")
	cmd := exec.CommandContext(ctx, c.binary(),
		"-env:UserInstallation=file://"+filepath.ToSlash(profile),
		"--headless", "--invisible", "--nocrashreport", "--nodefault",
		"--nofirststartwizard", "--nologo", "--norestore",
		"--convert-to", filter,
		"--outdir", outDir,
		srcPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	log := c.log().WithFields(logrus.Fields{"workbook": srcPath, "elapsed": time.Since(start)})
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		log.Errorf("xlbook/soffice: conversion failed: %s", msg)
		return fmt.Errorf("xlbook/soffice: %s", msg)
	}
	log.Debugf("xlbook/soffice: %s", strings.TrimSpace(string(out)))
	return nil
}
