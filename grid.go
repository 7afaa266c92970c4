package xlbook

import (
	"bytes"
	"io"
	"os"
	"sort"
	"strings"
)

// lineSpace is the set of bytes trimmed from both ends of every CSV line.
const lineSpace = " \t\r\n\v\f"

type (
	Coord struct {
		Row, Col int
	}

	// CellGrid maps zero-based coordinates to cell text. A coordinate that
	// was never written is absent, which is not the same as holding "".
	// A grid is filled once by the parser and never changed afterwards.
	CellGrid struct {
		cells map[Coord]string
		// widths[r] is the number of fields parsed from line r
		widths []int
	}
)

func newCellGrid() *CellGrid {
	return &CellGrid{cells: make(map[Coord]string)}
}

func (g *CellGrid) appendRow(fields []string) {
	row := len(g.widths)
	for col, v := range fields {
		g.cells[Coord{Row: row, Col: col}] = v
	}
	g.widths = append(g.widths, len(fields))
}

// Get returns the value at (row, col) and whether it was ever populated.
func (g *CellGrid) Get(row, col int) (string, bool) {
	if g == nil {
		return "", false
	}
	v, ok := g.cells[Coord{Row: row, Col: col}]
	return v, ok
}

// Len is the number of populated cells.
func (g *CellGrid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.cells)
}

// Rows is the number of parsed lines.
func (g *CellGrid) Rows() int {
	if g == nil {
		return 0
	}
	return len(g.widths)
}

// Width is the number of cells populated on row, 0 for a row out of range.
func (g *CellGrid) Width(row int) int {
	if g == nil || row < 0 || row >= len(g.widths) {
		return 0
	}
	return g.widths[row]
}

// Coords lists the populated coordinates in row-major order.
func (g *CellGrid) Coords() []Coord {
	if g == nil {
		return nil
	}
	coords := make([]Coord, 0, len(g.cells))
	for c := range g.cells {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Row != coords[j].Row {
			return coords[i].Row < coords[j].Row
		}
		return coords[i].Col < coords[j].Col
	})
	return coords
}

// Equal reports whether both grids hold the same coordinates and values.
func (g *CellGrid) Equal(o *CellGrid) bool {
	if g.Len() != o.Len() || g.Rows() != o.Rows() {
		return false
	}
	for c, v := range g.cells {
		if ov, ok := o.cells[c]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ReadGridFile parses the CSV file at path.
func ReadGridFile(path string, opts ...Option) (*CellGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Kind: KindIO, Err: err}
	}
	g, err := parseGrid(data, NewParams(opts...))
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return g, nil
}

// ParseGrid reads r to the end and parses it as CSV.
func ParseGrid(r io.Reader, opts ...Option) (*CellGrid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Kind: KindIO, Err: err}
	}
	return parseGrid(data, NewParams(opts...))
}

func ParseGridBytes(data []byte, opts ...Option) (*CellGrid, error) {
	return parseGrid(data, NewParams(opts...))
}

func parseGrid(data []byte, params *Params) (*CellGrid, error) {
	if params.DetectCharset {
		decoded, err := decodeText(data, params.logger())
		if err != nil {
			return nil, &ParseError{Kind: KindDecode, Err: err}
		}
		data = decoded
	}

	g := newCellGrid()
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		g.appendRow(splitFields(strings.Trim(string(line), lineSpace)))
	}
	return g, nil
}

// splitFields splits one CSV line on commas that are not inside a quoted
// section. Every '"' toggles the quoted state, so unbalanced quotes are
// tolerated and simply leave the rest of the line quoted.
func splitFields(line string) []string {
	var (
		fields  []string
		field   strings.Builder
		inQuote bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			field.WriteByte(c)
		case c == ',' && !inQuote:
			fields = append(fields, unquoteField(field.String()))
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	return append(fields, unquoteField(field.String()))
}

// unquoteField drops one leading and one trailing '"'. Balance is not
// checked: `"abc` becomes `abc`.
func unquoteField(f string) string {
	f = strings.TrimPrefix(f, `"`)
	return strings.TrimSuffix(f, `"`)
}
