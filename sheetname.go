package xlbook

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	// SpacePlaceholder replaces spaces of a sheet name inside a sheet file
	// name.
	SpacePlaceholder = "_SPACE_"
	sheetFilePrefix  = "sheet_"
	upperhex         = "0123456789ABCDEF"
)

// sheet_<base>-<ordinal>--<name>.<ext>, the first "-<digits>--" wins
var sheetFilePattern = regexp.MustCompile(`^` + sheetFilePrefix + `(.*?)-(\d+)--(.*)\.[^.]*$`)

// SheetFile is what a converter output file name says about its sheet.
type SheetFile struct {
	Path    string
	Base    string // base name of the converted workbook
	Ordinal int    // zero-based position of the sheet in the workbook
	Name    string // decoded sheet name
}

func shouldEscape(c byte) bool {
	switch c {
	case '%', '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\n', '\r', '\t':
		return true
	}
	return c < 0x20 || c == 0x7f
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	default:
		panic("invalid hex character")
	}
}

// an underscore that would read back as the start of SpacePlaceholder
func literalPlaceholder(name string, i int) bool {
	return name[i] == '_' && strings.HasPrefix(name[i+1:], SpacePlaceholder[1:len(SpacePlaceholder)-1])
}

// EncodeSheetName makes name safe to embed in a file name: characters that
// file systems reject are %XX escaped and spaces become SpacePlaceholder.
// An underscore starting a literal "_SPACE" is escaped as well, so such
// names survive DecodeSheetName.
func EncodeSheetName(name string) string {
	count := 0
	for i := 0; i < len(name); i++ {
		if shouldEscape(name[i]) || literalPlaceholder(name, i) {
			count++
		}
	}
	if count > 0 {
		var sb strings.Builder
		sb.Grow(len(name) + 2*count)
		for i := 0; i < len(name); i++ {
			c := name[i]
			if shouldEscape(c) || literalPlaceholder(name, i) {
				sb.WriteByte('%')
				sb.WriteByte(upperhex[c>>4])
				sb.WriteByte(upperhex[c&0x0f])
			} else {
				sb.WriteByte(c)
			}
		}
		name = sb.String()
	}
	return strings.ReplaceAll(name, " ", SpacePlaceholder)
}

// DecodeSheetName reverses EncodeSheetName. A '%' not followed by two hex
// digits is kept literally, so names encoded with only the space
// placeholder decode too.
func DecodeSheetName(encoded string) string {
	s := strings.ReplaceAll(encoded, SpacePlaceholder, " ")
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			sb.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// SheetFileName is the file name a converter gives the CSV export of the
// sheet at ordinal of the workbook base.
func SheetFileName(base string, ordinal int, sheetName string) string {
	return fmt.Sprintf("%s%s-%d--%s.csv", sheetFilePrefix, base, ordinal, EncodeSheetName(sheetName))
}

// ParseSheetFileName reads the ordinal and sheet name back out of a path
// produced after SheetFileName.
//
// The first "-<digits>--" after the prefix ends the base, so a base that
// itself contains such a run is split there: "sheet_book-1--2.xlsx-0--Data.csv"
// parses as ordinal 1 with sheet name "2.xlsx-0--Data". Converters stage
// workbooks under a fixed base name and never hit this.
func ParseSheetFileName(path string) (SheetFile, error) {
	m := sheetFilePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return SheetFile{}, fmt.Errorf("%w: %q", ErrBadSheetFileName, filepath.Base(path))
	}
	ordinal, err := strconv.Atoi(m[2])
	if err != nil {
		return SheetFile{}, fmt.Errorf("%w: ordinal of %q: %w", ErrBadSheetFileName, filepath.Base(path), err)
	}
	return SheetFile{
		Path:    path,
		Base:    m[1],
		Ordinal: ordinal,
		Name:    DecodeSheetName(m[3]),
	}, nil
}
