package xlbook

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	docxMainPart   = "word/document.xml"
	wordNamespace  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	mcNamespace    = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	paragraphBreak = "\n"
)

// tableBuilder collects one w:tbl while its paragraphs stream by.
type tableBuilder struct {
	index int // position in Document.Tables
	row   []string
	cell  []string
	inRow bool
	inTc  bool
}

// ParseDocx extracts the body text and the tables of a docx package.
func ParseDocx(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %w", ErrParse, err)
	}
	for _, f := range zr.File {
		if f.Name != docxMainPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: docx: %w", ErrParse, err)
		}
		defer rc.Close()
		doc, err := parseDocumentXML(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: docx %s: %w", ErrParse, docxMainPart, err)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("%w: docx: %s not found", ErrParse, docxMainPart)
}

// parseDocumentXML walks the main part once. Every paragraph, table cells
// included, is a line of Document.Text; a cell's text joins its own
// paragraphs. Tables are numbered in the order they open, nested tables
// after their parent.
func parseDocumentXML(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)
	doc := &Document{Tables: []Table{}}
	var (
		paras  []string
		open   []*strings.Builder // paragraphs, a text box paragraph nests in its anchor
		tables []*tableBuilder
		inText bool
	)
	current := func() *strings.Builder {
		if len(open) == 0 {
			return nil
		}
		return open[len(open)-1]
	}
	innermost := func() *tableBuilder {
		if len(tables) == 0 {
			return nil
		}
		return tables[len(tables)-1]
	}

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == mcNamespace && t.Name.Local == "Fallback" {
				// the same content again, for older readers
				if err := d.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				open = append(open, &strings.Builder{})
			case "t":
				inText = true
			case "tab":
				if p := current(); p != nil {
					p.WriteByte('\t')
				}
			case "br", "cr":
				if p := current(); p != nil {
					p.WriteByte('\n')
				}
			case "tbl":
				doc.Tables = append(doc.Tables, Table{})
				tables = append(tables, &tableBuilder{index: len(doc.Tables) - 1})
			case "tr":
				if tb := innermost(); tb != nil {
					tb.row, tb.inRow = []string{}, true
				}
			case "tc":
				if tb := innermost(); tb != nil && tb.inRow {
					tb.cell, tb.inTc = nil, true
				}
			}

		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				p := current()
				if p == nil {
					continue
				}
				open = open[:len(open)-1]
				text := p.String()
				paras = append(paras, text)
				if tb := innermost(); tb != nil && tb.inTc {
					tb.cell = append(tb.cell, text)
				}
			case "t":
				inText = false
			case "tc":
				if tb := innermost(); tb != nil && tb.inTc {
					tb.row = append(tb.row, strings.Join(tb.cell, paragraphBreak))
					tb.cell, tb.inTc = nil, false
				}
			case "tr":
				if tb := innermost(); tb != nil && tb.inRow {
					doc.Tables[tb.index] = append(doc.Tables[tb.index], tb.row)
					tb.row, tb.inRow = nil, false
				}
			case "tbl":
				if len(tables) > 0 {
					tables = tables[:len(tables)-1]
				}
			}

		case xml.CharData:
			if p := current(); inText && p != nil {
				p.Write(t)
			}
		}
	}
	doc.Text = strings.Join(paras, paragraphBreak)
	return doc, nil
}
