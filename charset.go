package xlbook

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText converts data to UTF-8. Valid UTF-8 is returned untouched;
// anything else is run through the charset chardet considers most likely.
// An unknown charset leaves the bytes as they are.
func decodeText(data []byte, log logrus.FieldLogger) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		log.Debugf("xlbook: charset detection failed, keeping raw bytes: %v", err)
		return data, nil
	}

	enc := encodingFor(result.Charset)
	if enc == nil {
		log.WithFields(logrus.Fields{"charset": result.Charset, "confidence": result.Confidence}).
			Debug("xlbook: no decoder for detected charset, keeping raw bytes")
		return data, nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", result.Charset, err)
	}
	log.WithField("charset", result.Charset).Debug("xlbook: csv transcoded to utf-8")
	return decoded, nil
}

func encodingFor(charset string) encoding.Encoding {
	switch strings.ToLower(charset) {
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case "gb-18030", "gb18030", "gbk", "gb2312":
		return simplifiedchinese.GB18030
	case "big5":
		return traditionalchinese.Big5
	case "shift_jis":
		return japanese.ShiftJIS
	case "euc-jp":
		return japanese.EUCJP
	case "iso-2022-jp":
		return japanese.ISO2022JP
	case "euc-kr":
		return korean.EUCKR
	case "iso-8859-1":
		return charmap.ISO8859_1
	case "iso-8859-2":
		return charmap.ISO8859_2
	case "iso-8859-5":
		return charmap.ISO8859_5
	case "iso-8859-7":
		return charmap.ISO8859_7
	case "iso-8859-9":
		return charmap.ISO8859_9
	case "windows-1251":
		return charmap.Windows1251
	case "windows-1252":
		return charmap.Windows1252
	case "windows-1256":
		return charmap.Windows1256
	case "koi8-r":
		return charmap.KOI8R
	default:
		return nil
	}
}

// printable keeps the ASCII printable characters of s, the lossy fallback
// used when a value is not valid UTF-8.
func printable(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 0x20 && c < 0x7f) || strings.IndexByte("\t\n\r\v\f", c) >= 0 {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
