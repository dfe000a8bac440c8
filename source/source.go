// Package source reads the XPL0 input byte stream and tracks the
// (line, column) position of each character, as spec.md §4.1 requires.
package source

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"github.com/mukaiizawa/XPL0/token"
)

// Source pulls bytes one at a time from an underlying io.Reader and keeps
// the current (line, column), reset at each newline.
type Source struct {
	r      *bufio.Reader
	line   int
	column int
}

// New wraps r as a character Source. Position tracking starts at line 1,
// column 0; the first call to Next reports column 1.
func New(r io.Reader) *Source {
	return &Source{r: bufio.NewReader(r), line: 1, column: 0}
}

// Next returns the next byte and the position it was read from; a newline
// is reported at column 0 of the line it starts. At end of input it
// returns io.EOF; any other read failure is wrapped.
func (s *Source) Next() (byte, token.Pos, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, s.Pos(), io.EOF
		}
		return 0, s.Pos(), errors.Wrap(err, "read failed")
	}
	if b == '\n' {
		s.line++
		s.column = 0
	} else {
		s.column++
	}
	return b, s.Pos(), nil
}

// Pos returns the position of the character most recently returned by
// Next (or the start-of-input position, before the first call).
func (s *Source) Pos() token.Pos {
	return token.Pos{Line: s.line, Column: s.column}
}
