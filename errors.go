package xlbook

import "fmt"

type ParseKind byte

const (
	KindIO     ParseKind = iota // source could not be opened or read
	KindDecode                  // content could not be decoded to text
)

func (k ParseKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("N/A(0x%x)", byte(k))
	}
}

// ParseError is returned by the grid parser. No grid is ever returned
// alongside it.
type ParseError struct {
	Path string
	Kind ParseKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("xlbook: parse csv (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("xlbook: parse csv %q (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes an io kind match ErrIO and any other kind match ErrParse.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrParse:
		return e.Kind != KindIO
	}
	return false
}

// AssemblyError wraps the failure of one converter output file. A workbook
// is never returned alongside it.
type AssemblyError struct {
	File string
	Err  error
}

func (e *AssemblyError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("xlbook: assemble: %v", e.Err)
	}
	return fmt.Sprintf("xlbook: assemble %q: %v", e.File, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }
