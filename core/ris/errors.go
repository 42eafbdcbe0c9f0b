package ris

import (
	"errors"
	"fmt"
	"strings"

	rerrors "github.com/FocuswithJustin/ris/core/errors"
)

// Error kinds. A *ParseError unwraps to exactly one of these.
var (
	// ErrDecode is returned when the input is not valid UTF-8.
	ErrDecode = errors.New("input is not valid UTF-8")
	// ErrLineTooLong is returned when a physical line exceeds Options.MaxLineBytes.
	ErrLineTooLong = errors.New("line exceeds maximum length")
	// ErrOrphanContinuation reports a line without a tag while no field is open.
	ErrOrphanContinuation = errors.New("continuation line without an open field")
	// ErrMissingReferenceType reports a record that ended without a reference type.
	ErrMissingReferenceType = errors.New("record has no reference type")
	// ErrTruncatedRecord reports input that ended inside a record.
	ErrTruncatedRecord = errors.New("input ended inside a record")
	// ErrUnterminatedRecord reports a TY line that opened a new record
	// before the previous one saw its ER line.
	ErrUnterminatedRecord = errors.New("record not terminated before the next type declaration")
	// ErrStrayField reports a field line outside of any record.
	ErrStrayField = errors.New("field outside of a record")
)

// ParseError describes a decoding failure at a position in the input.
type ParseError struct {
	Kind        error  // One of the Err* sentinels
	Offset      int64  // Byte offset of the offending line (or the record start)
	Line        int    // 1-based line number matching Offset
	Record      int    // Index of the affected record, -1 outside records
	Tag         string // Tag involved, if any
	Text        string // Offending line content, if any
	Recoverable bool   // Decoding continues after this error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ris: line %d (offset %d)", e.Line, e.Offset)
	if e.Record >= 0 {
		fmt.Fprintf(&b, ", record %d", e.Record)
	}
	if e.Tag != "" {
		fmt.Fprintf(&b, ", tag %s", e.Tag)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Text != "" {
		fmt.Fprintf(&b, ": %q", clip(e.Text, 60))
	}
	return b.String()
}

// Unwrap exposes the error kind and rerrors.ErrInvalidInput.
func (e *ParseError) Unwrap() []error {
	return []error{e.Kind, rerrors.ErrInvalidInput}
}

// IsRecoverable reports whether err is a *ParseError after which decoding
// continued.
func IsRecoverable(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Recoverable
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back up to a rune boundary
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n] + "..."
}
