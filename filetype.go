package xlbook

import (
	"archive/zip"
	"bytes"
	"strings"

	"github.com/richardlehane/mscfb"
)

var (
	// Office 97 compound binary file
	office97Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	// Office 2007+ (PKZip)
	office2007Magic = []byte{0x50, 0x4B, 0x03, 0x04}
)

type OfficeKind byte

const (
	OfficeUnknown   OfficeKind = iota // not an Office container
	OfficeXLS                         // compound file with a Workbook stream
	OfficeXLSX                        // zip with xl/workbook.xml
	OfficeXLSB                        // zip with xl/workbook.bin
	OfficeOtherOLE                    // compound file without a workbook, e.g. .ppt
	OfficeOtherZip                    // zip without a workbook, e.g. .pptx
	OfficeDOC                         // compound file with a WordDocument stream
	OfficeDOCX                        // zip with word/document.xml
)

func (k OfficeKind) String() string {
	switch k {
	case OfficeXLS:
		return "xls"
	case OfficeXLSX:
		return "xlsx"
	case OfficeXLSB:
		return "xlsb"
	case OfficeOtherOLE:
		return "ole"
	case OfficeOtherZip:
		return "zip"
	case OfficeDOC:
		return "doc"
	case OfficeDOCX:
		return "docx"
	default:
		return "unknown"
	}
}

// Ext is the file extension matching k, "" when k is neither a spreadsheet
// nor a Word document.
func (k OfficeKind) Ext() string {
	if k.IsSpreadsheet() || k.IsDocument() {
		return "." + k.String()
	}
	return ""
}

func (k OfficeKind) IsSpreadsheet() bool {
	return k == OfficeXLS || k == OfficeXLSX || k == OfficeXLSB
}

// IsDocument reports whether k is a Word document.
func (k OfficeKind) IsDocument() bool {
	return k == OfficeDOC || k == OfficeDOCX
}

// IsOfficeFile reports whether data starts with the Office 97 or the
// Office 2007+ magic number.
func IsOfficeFile(data []byte) bool {
	return IsOffice97File(data) || IsOffice2007File(data)
}

func IsOffice97File(data []byte) bool {
	return bytes.HasPrefix(data, office97Magic)
}

func IsOffice2007File(data []byte) bool {
	return bytes.HasPrefix(data, office2007Magic)
}

// ProbeOffice looks inside an Office container to tell spreadsheets apart
// from other documents sharing the same magic number.
func ProbeOffice(data []byte) OfficeKind {
	switch {
	case IsOffice97File(data):
		return probeOLE(data)
	case IsOffice2007File(data):
		return probeZip(data)
	default:
		return OfficeUnknown
	}
}

func probeOLE(data []byte) OfficeKind {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return OfficeUnknown
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		// BIFF8 names its stream Workbook, BIFF5 and older Book
		if strings.EqualFold(entry.Name, "Workbook") || strings.EqualFold(entry.Name, "Book") {
			return OfficeXLS
		}
		if strings.EqualFold(entry.Name, "WordDocument") {
			return OfficeDOC
		}
	}
	return OfficeOtherOLE
}

func probeZip(data []byte) OfficeKind {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return OfficeUnknown
	}
	for _, f := range zr.File {
		switch f.Name {
		case "xl/workbook.xml":
			return OfficeXLSX
		case "xl/workbook.bin":
			return OfficeXLSB
		case docxMainPart:
			return OfficeDOCX
		}
	}
	return OfficeOtherZip
}
