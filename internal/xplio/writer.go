// Package xplio holds small io.Writer helpers shared by cmd/xpl0's
// output paths.
package xplio

import (
	"io"

	"github.com/pkg/errors"
)

// ErrWriter wraps an io.Writer and remembers the first write error,
// returning it on every subsequent call instead of retrying. cmd/xpl0
// wraps stdout and stderr in one of these so a broken pipe is reported
// once as a fatal error rather than producing a wall of repeated
// write-failure noise.
type ErrWriter struct {
	w   io.Writer
	Err error
}

// NewErrWriter returns an ErrWriter around w.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w: w}
}

func (w *ErrWriter) Write(p []byte) (int, error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err := w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}
