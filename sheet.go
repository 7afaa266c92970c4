package xlbook

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

type (
	// Sheet is a named, immutable cell grid.
	Sheet struct {
		name string
		grid *CellGrid
	}

	gridRow struct {
		index int
		grid  *CellGrid
	}
)

// NewSheet wraps grid under name. An empty name becomes DefaultSheetName and
// a nil grid an empty one.
func NewSheet(name string, grid *CellGrid) *Sheet {
	if name == "" {
		name = DefaultSheetName
	}
	if grid == nil {
		grid = newCellGrid()
	}
	return &Sheet{name: name, grid: grid}
}

func (s *Sheet) Name() string { return s.name }

func (s *Sheet) Cells() *CellGrid { return s.grid }

// Cell returns the value stored at (row, col). A coordinate the source never
// populated is ErrNotFound, even though "" is a legal stored value.
func (s *Sheet) Cell(row, col int) (string, error) {
	v, ok := s.grid.Get(row, col)
	if !ok {
		return "", fmt.Errorf("%w: cell (%d, %d) in sheet %q", ErrNotFound, row, col, s.name)
	}
	return v, nil
}

func (s *Sheet) CellValue(row, col int) (string, error) {
	return s.Cell(row, col)
}

func (s *Sheet) RowCount() int {
	return s.grid.Rows()
}

func (s *Sheet) GetRow(index int) (Row, error) {
	if index < 0 || index >= s.grid.Rows() {
		return nil, ErrOutOfRange
	}
	return &gridRow{index: index, grid: s.grid}, nil
}

func (s *Sheet) String() string {
	sb := strings.Builder{}
	sb.WriteString("Sheet: ")
	sb.WriteString(s.name)
	sb.WriteString("\n\n")
	for _, c := range s.grid.Coords() {
		v, _ := s.grid.Get(c.Row, c.Col)
		if len(v) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("(%d, %d)\t=\t'%s'\n", c.Row, c.Col, printable(v)))
	}
	return sb.String()
}

func (x *gridRow) ColumnCount() int {
	return x.grid.Width(x.index)
}

func (x *gridRow) GetColumn(index int) (string, error) {
	if index < 0 || index >= x.grid.Width(x.index) {
		return "", ErrOutOfRange
	}
	v, ok := x.grid.Get(x.index, index)
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (x *gridRow) GetInt64Column(index int) (int64, error) {
	v, err := x.GetColumn(index)
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("xlbook/row: string to int64 %w: %w", ErrParseError, err)
	}
	return i, nil
}

func (x *gridRow) GetFloat64Column(index int) (float64, error) {
	v, err := x.GetColumn(index)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("xlbook/row: string to float64 %w: %w", ErrParseError, err)
	}
	return f, nil
}

func (x *gridRow) GetBoolColumn(index int) (bool, error) {
	v, err := x.GetColumn(index)
	if err != nil {
		return false, err
	}
	v = strings.ToUpper(strings.TrimSpace(v))
	switch v {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	default:
		return false, fmt.Errorf("xlbook/row: string to bool %w: unknown value: %s", ErrParseError, v)
	}
}

func (x *gridRow) AllColumns() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i := 0; i < x.grid.Width(x.index); i++ {
			v, _ := x.grid.Get(x.index, i)
			if !yield(i, v) {
				return
			}
		}
	}
}
