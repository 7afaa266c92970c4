package xlbook

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"unicode/utf16"
)

// xlsbCell is a Float when s is empty, a shared string otherwise.
type xlsbCell struct {
	col int
	f   float64
	s   string
}

type xlsbSheet struct {
	name string
	cols int
	rows map[int][]xlsbCell
}

type biff12Writer struct {
	bytes.Buffer
}

func (w *biff12Writer) record(id int, payload []byte) {
	if id < 0x80 {
		w.WriteByte(byte(id))
	} else {
		w.WriteByte(byte(id & 0xFF))
		w.WriteByte(byte(id >> 8))
	}
	n := len(payload)
	for {
		b := byte(n & 0x7F)
		n >>= 7
		if n == 0 {
			w.WriteByte(b)
			break
		}
		w.WriteByte(b | 0x80)
	}
	w.Write(payload)
}

func biff12String(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := binary.LittleEndian.AppendUint32(nil, uint32(len(units)))
	for _, u := range units {
		b = binary.LittleEndian.AppendUint16(b, u)
	}
	return b
}

func le32(vs ...uint32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

// xlsbBytes builds a binary workbook holding sheets in the given order.
func xlsbBytes(t *testing.T, sheets ...xlsbSheet) []byte {
	t.Helper()
	var (
		wb, sst biff12Writer
		strs    []string
		index   = map[string]int{}
		parts   = map[string][]byte{}
		rels    bytes.Buffer
	)
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	wb.record(0x0183, nil)
	wb.record(0x018F, nil)
	for i, sheet := range sheets {
		relID := fmt.Sprintf("rId%d", i+1)
		target := fmt.Sprintf("worksheets/sheet%d.bin", i+1)
		fmt.Fprintf(&rels, `<Relationship Id="%s" Type="worksheet" Target="%s"/>`, relID, target)
		payload := le32(0, uint32(i+1))
		payload = append(payload, biff12String(relID)...)
		payload = append(payload, biff12String(sheet.name)...)
		wb.record(0x019C, payload)

		var ws biff12Writer
		last := 0
		for r := range sheet.rows {
			last = max(last, r)
		}
		ws.record(0x0181, nil)
		ws.record(0x0194, le32(0, uint32(last), 0, uint32(sheet.cols-1)))
		ws.record(0x0191, nil)
		for r := 0; r <= last; r++ {
			cells, ok := sheet.rows[r]
			if !ok {
				continue
			}
			ws.record(0x0000, le32(uint32(r)))
			for _, c := range cells {
				if c.s == "" {
					ws.record(0x0005, binary.LittleEndian.AppendUint64(le32(uint32(c.col), 0), math.Float64bits(c.f)))
					continue
				}
				j, ok := index[c.s]
				if !ok {
					j = len(strs)
					index[c.s] = j
					strs = append(strs, c.s)
				}
				ws.record(0x0007, le32(uint32(c.col), 0, uint32(j)))
			}
		}
		ws.record(0x0192, nil)
		ws.record(0x0182, nil)
		parts["xl/"+target] = ws.Bytes()
	}
	wb.record(0x0190, nil)
	wb.record(0x0184, nil)
	rels.WriteString(`</Relationships>`)

	sst.record(0x019F, le32(uint32(len(strs)), uint32(len(strs))))
	for _, s := range strs {
		sst.record(0x0013, append([]byte{0}, biff12String(s)...))
	}
	sst.record(0x01A0, nil)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name string, data []byte) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	add("xl/_rels/workbook.bin.rels", rels.Bytes())
	add("xl/workbook.bin", wb.Bytes())
	add("xl/sharedStrings.bin", sst.Bytes())
	for i := range sheets {
		name := fmt.Sprintf("xl/worksheets/sheet%d.bin", i+1)
		add(name, parts[name])
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func budgetWorkbook(t *testing.T) []byte {
	return xlsbBytes(t,
		xlsbSheet{name: "Totals", cols: 2, rows: map[int][]xlsbCell{
			0: {{col: 0, s: "Item"}, {col: 1, s: "Amount"}},
			1: {{col: 0, s: "Rent"}, {col: 1, f: 42}},
			2: {{col: 0, s: "Food, misc"}, {col: 1, f: 1250.5}},
		}},
		xlsbSheet{name: "Raw Data", cols: 3, rows: map[int][]xlsbCell{
			0: {{col: 0, s: "id"}},
			2: {{col: 2, f: 7}},
		}},
	)
}

func TestProbeOfficeXlsb(t *testing.T) {
	if kind := ProbeOffice(budgetWorkbook(t)); kind != OfficeXLSB {
		t.Fatalf("ProbeOffice = %s", kind)
	}
}

func TestXlsbSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.xlsb")
	if err := os.WriteFile(path, budgetWorkbook(t), 0600); err != nil {
		t.Fatal(err)
	}
	src, err := openSource(OfficeXLSB, path, discardLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if names := src.SheetNames(); !reflect.DeepEqual(names, []string{"Totals", "Raw Data"}) {
		t.Fatalf("SheetNames = %q", names)
	}
	rows, err := src.SheetRows(1)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"id", "", ""}, {"", "", ""}, {"", "", "7"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %q, want %q", rows, want)
	}
	for _, index := range []int{-1, 2} {
		if _, err := src.SheetRows(index); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("SheetRows(%d) error = %v", index, err)
		}
	}
}

func TestLoadExcelXlsb(t *testing.T) {
	tmp := t.TempDir()
	book, err := LoadExcel(context.Background(), budgetWorkbook(t), WithTempDir(tmp))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(book.SheetNames(), []string{"Totals", "Raw Data"}) {
		t.Fatalf("SheetNames = %q", book.SheetNames())
	}
	totals, _ := book.SheetByIndex(0)
	cells := []struct {
		row, col int
		want     string
	}{
		{0, 1, "Amount"},
		{1, 1, "42"},
		{2, 0, "Food, misc"},
		{2, 1, "1250.5"},
	}
	for _, c := range cells {
		if v, err := totals.Cell(c.row, c.col); err != nil || v != c.want {
			t.Fatalf("Totals (%d, %d) = %q, %v, want %q", c.row, c.col, v, err, c.want)
		}
	}
	raw, err := book.SheetByName("Raw Data")
	if err != nil {
		t.Fatal(err)
	}
	if v, err := raw.Cell(2, 2); err != nil || v != "7" {
		t.Fatalf("Raw Data (2, 2) = %q, %v", v, err)
	}
	assertEmptyDir(t, tmp)
}
