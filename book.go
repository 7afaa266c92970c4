package xlbook

import (
	"fmt"
	"strings"
)

// Book is an ordered, read-only sequence of sheets. Its method set follows
// the xlrd Book: SheetNames, SheetByIndex, SheetByName, NSheets.
type Book struct {
	sheets []*Sheet
}

func NewBook(sheets ...*Sheet) *Book {
	return &Book{sheets: append([]*Sheet(nil), sheets...)}
}

func (b *Book) NSheets() int {
	return len(b.sheets)
}

// SheetNames lists sheet names in workbook order.
func (b *Book) SheetNames() []string {
	names := make([]string, 0, len(b.sheets))
	for _, s := range b.sheets {
		names = append(names, s.name)
	}
	return names
}

func (b *Book) SheetByIndex(index int) (*Sheet, error) {
	if index < 0 || index >= len(b.sheets) {
		return nil, fmt.Errorf("%w: sheet index %d, %d sheets", ErrOutOfRange, index, len(b.sheets))
	}
	return b.sheets[index], nil
}

// SheetByName returns the first sheet named exactly name. Duplicate names
// are kept as they are, so later sheets with the same name are only
// reachable by index.
func (b *Book) SheetByName(name string) (*Sheet, error) {
	for _, s := range b.sheets {
		if s.name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: sheet name %q", ErrNotFound, name)
}

func (b *Book) SheetCount() int {
	return b.NSheets()
}

func (b *Book) GetSheet(index int) (*Sheet, error) {
	return b.SheetByIndex(index)
}

// Sheets returns a copy of the sheet list.
func (b *Book) Sheets() []*Sheet {
	return append([]*Sheet(nil), b.sheets...)
}

func (b *Book) String() string {
	sb := strings.Builder{}
	for _, s := range b.sheets {
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
