package xlbook

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSplitFields(t *testing.T) {
	tests := []struct {
		in  string
		out []string
	}{
		{in: `a,"b,c",d`, out: []string{"a", "b,c", "d"}},
		{in: `a,b,c`, out: []string{"a", "b", "c"}},
		{in: ``, out: []string{""}},
		{in: `a,,b`, out: []string{"a", "", "b"}},
		{in: `"abc`, out: []string{"abc"}},
		{in: `"`, out: []string{""}},
		{in: `a,"b,c`, out: []string{"a", "b,c"}},
		{in: `"x""y",z`, out: []string{`x""y`, "z"}},
		{in: `"1,234","5,678"`, out: []string{"1,234", "5,678"}},
		{in: `a, b`, out: []string{"a", " b"}},
	}

	for _, test := range tests {
		got := splitFields(test.in)
		if !reflect.DeepEqual(got, test.out) {
			t.Fatalf("splitFields(%q) = %q, want %q", test.in, got, test.out)
		}
	}
}

func TestParseGridDimensions(t *testing.T) {
	const n, m = 4, 5
	var sb strings.Builder
	for r := 0; r < n; r++ {
		for c := 0; c < m; c++ {
			if c > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(fmt.Sprintf("r%dc%d", r, c))
		}
		sb.WriteString("\n")
	}

	g, err := ParseGridBytes([]byte(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != n*m {
		t.Fatalf("grid has %d cells, want %d", g.Len(), n*m)
	}
	if g.Rows() != n {
		t.Fatalf("grid has %d rows, want %d", g.Rows(), n)
	}
	for r := 0; r < n; r++ {
		if g.Width(r) != m {
			t.Fatalf("row %d has width %d, want %d", r, g.Width(r), m)
		}
		for c := 0; c < m; c++ {
			v, ok := g.Get(r, c)
			if !ok || v != fmt.Sprintf("r%dc%d", r, c) {
				t.Fatalf("cell (%d, %d) = %q, %t", r, c, v, ok)
			}
		}
	}
	if _, ok := g.Get(n, 0); ok {
		t.Fatalf("cell (%d, 0) should not exist", n)
	}
}

func TestParseGridLines(t *testing.T) {
	g, err := ParseGridBytes([]byte("  a,b \r\n\r\n\tc,\"d,e\"\r\nlast"))
	if err != nil {
		t.Fatal(err)
	}
	expected := map[Coord]string{
		{0, 0}: "a",
		{0, 1}: "b",
		{1, 0}: "",
		{2, 0}: "c",
		{2, 1}: "d,e",
		{3, 0}: "last",
	}
	if g.Len() != len(expected) {
		t.Fatalf("grid has %d cells, want %d: %v", g.Len(), len(expected), g.Coords())
	}
	for c, want := range expected {
		got, ok := g.Get(c.Row, c.Col)
		if !ok {
			t.Fatalf("cell %v missing", c)
		}
		if got != want {
			t.Fatalf("cell %v = %q, want %q", c, got, want)
		}
	}
}

func TestParseGridEmptyInput(t *testing.T) {
	g, err := ParseGrid(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 0 || g.Rows() != 0 {
		t.Fatalf("empty input gave %d cells in %d rows", g.Len(), g.Rows())
	}

	// a trailing newline does not start another row
	g, err = ParseGrid(strings.NewReader("x\n"))
	if err != nil {
		t.Fatal(err)
	}
	if g.Rows() != 1 {
		t.Fatalf("got %d rows, want 1", g.Rows())
	}
}

func TestParseGridIdempotent(t *testing.T) {
	data := []byte("id,name,amount\n1,\"Smith, J\",\"1,000\"\n2,,3\n")
	g1, err := ParseGridBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := ParseGridBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if !g1.Equal(g2) || !g2.Equal(g1) {
		t.Fatal("parsing the same content twice gave different grids")
	}
	if !reflect.DeepEqual(g1.Coords(), g2.Coords()) {
		t.Fatal("coordinates differ")
	}
}

func TestReadGridFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	g, err := ReadGridFile(path)
	if err == nil {
		t.Fatal("expected an error")
	}
	if g != nil {
		t.Fatal("no grid expected on failure")
	}
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if errors.Is(err, ErrParse) {
		t.Fatalf("io failure must not match ErrParse: %v", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Path != path || pe.Kind != KindIO {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestParseGridCharsetDetection(t *testing.T) {
	// UTF-16LE with BOM
	src := "a,b\nc,\"d,e\"\n"
	data := []byte{0xFF, 0xFE}
	for _, r := range src {
		data = append(data, byte(r), 0)
	}

	g, err := ParseGridBytes(data, WithCharsetDetection())
	if err != nil {
		t.Fatal(err)
	}
	for c, want := range map[Coord]string{{0, 0}: "a", {0, 1}: "b", {1, 0}: "c", {1, 1}: "d,e"} {
		if got, ok := g.Get(c.Row, c.Col); !ok || got != want {
			t.Fatalf("cell %v = %q, want %q", c, got, want)
		}
	}

	// valid UTF-8 is never transcoded
	utf := []byte("名称,数值\n甲,1\n")
	g, err = ParseGridBytes(utf, WithCharsetDetection())
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := g.Get(0, 0); v != "名称" {
		t.Fatalf("cell (0, 0) = %q", v)
	}
}

func TestEncodingFor(t *testing.T) {
	for _, name := range []string{"UTF-16LE", "GB-18030", "Big5", "Shift_JIS", "EUC-KR", "ISO-8859-1", "windows-1252"} {
		if encodingFor(name) == nil {
			t.Fatalf("no decoder for %s", name)
		}
	}
	if encodingFor("x-unknown") != nil {
		t.Fatal("unknown charset should have no decoder")
	}
}

func TestPrintable(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{in: "plain", out: "plain"},
		{in: "中文", out: "中文"},
		{in: "ab\xffc\x01d", out: "abcd"},
		{in: "tab\there\xfe", out: "tab\there"},
	}
	for _, test := range tests {
		if got := printable(test.in); got != test.out {
			t.Fatalf("printable(%q) = %q, want %q", test.in, got, test.out)
		}
	}
}
