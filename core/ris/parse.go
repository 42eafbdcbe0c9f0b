package ris

import (
	"bytes"
	"io"
	"iter"
)

// Parse decodes all of r. It returns the completed records, or nil and the
// first error that stops decoding. Recoverable errors are skipped.
func Parse(r io.Reader, opts Options) ([]*Record, error) {
	d := NewDecoder(r, opts)
	var out []*Record
	for {
		rec, err := d.Next()
		switch {
		case err == io.EOF:
			return out, nil
		case err != nil:
			if IsRecoverable(err) {
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
}

// ParseBytes is Parse over an in-memory input.
func ParseBytes(b []byte, opts Options) ([]*Record, error) {
	return Parse(bytes.NewReader(b), opts)
}

// ParseStreaming decodes r lazily. Each element is either a record or an
// error; recoverable errors are followed by further elements, and the
// sequence ends after the first error that is not recoverable. Stopping the
// iteration early is safe.
func ParseStreaming(r io.Reader, opts Options) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		NewDecoder(r, opts).All()(yield)
	}
}
