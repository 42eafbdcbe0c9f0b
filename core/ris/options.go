package ris

import (
	"fmt"
	"strings"

	rerrors "github.com/FocuswithJustin/ris/core/errors"
)

// Format constants.
const (
	// TagEnd terminates a record. Its value is ignored.
	TagEnd = "ER"

	// DefaultJoin joins continuation lines to the value they extend.
	DefaultJoin = "\n"

	// DefaultMaxLineBytes bounds a single physical line.
	DefaultMaxLineBytes = 64 << 20
)

// Mode selects how tolerant the decoder is of malformed input.
type Mode int

const (
	// Lenient drops malformed records, reports them and keeps going.
	Lenient Mode = iota
	// Strict stops at the first malformed line.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "lenient" or "strict".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lenient", "":
		return Lenient, nil
	case "strict":
		return Strict, nil
	}
	return 0, &rerrors.ValidationError{Field: "mode", Value: s, Message: fmt.Sprintf("unknown mode %q", s)}
}

// DuplicatePolicy decides which occurrence of a repeated single-valued tag
// is kept.
type DuplicatePolicy int

const (
	// LastWins keeps the last occurrence. Hand-edited exports usually append
	// corrections, so the later value is the authoritative one.
	LastWins DuplicatePolicy = iota
	// FirstWins keeps the first occurrence and ignores the rest.
	FirstWins
)

func (p DuplicatePolicy) String() string {
	switch p {
	case LastWins:
		return "last"
	case FirstWins:
		return "first"
	default:
		return fmt.Sprintf("DuplicatePolicy(%d)", int(p))
	}
}

// ParseDuplicatePolicy parses "last" or "first".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last", "last-wins", "":
		return LastWins, nil
	case "first", "first-wins":
		return FirstWins, nil
	}
	return 0, &rerrors.ValidationError{Field: "duplicates", Value: s, Message: fmt.Sprintf("unknown duplicate policy %q", s)}
}

// Options configures a Decoder. The zero value is usable and equivalent to
// DefaultOptions.
type Options struct {
	// Mode selects strict or lenient handling of malformed input.
	Mode Mode

	// Duplicates decides which value a repeated single-valued tag keeps.
	Duplicates DuplicatePolicy

	// Join is inserted between a value and each continuation line.
	// Either "\n" or " "; empty means DefaultJoin.
	Join string

	// MaxLineBytes bounds a single physical line (0 = DefaultMaxLineBytes).
	MaxLineBytes int

	// Schema maps tags to fields (nil = DefaultSchema()).
	Schema *Schema
}

// DefaultOptions returns lenient, last-wins options over the default schema.
func DefaultOptions() Options {
	return Options{
		Mode:         Lenient,
		Duplicates:   LastWins,
		Join:         DefaultJoin,
		MaxLineBytes: DefaultMaxLineBytes,
		Schema:       DefaultSchema(),
	}
}

// Validate checks that every option has a supported value.
func (o Options) Validate() error {
	if o.Mode != Lenient && o.Mode != Strict {
		return rerrors.NewValidation("mode", fmt.Sprintf("unknown mode %d", int(o.Mode)))
	}
	if o.Duplicates != LastWins && o.Duplicates != FirstWins {
		return rerrors.NewValidation("duplicates", fmt.Sprintf("unknown duplicate policy %d", int(o.Duplicates)))
	}
	switch o.Join {
	case "", "\n", " ":
	default:
		return &rerrors.ValidationError{Field: "join", Value: o.Join, Message: "must be a newline or a space"}
	}
	if o.MaxLineBytes < 0 {
		return rerrors.NewValidation("max_line_bytes", "must not be negative")
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Join == "" {
		o.Join = DefaultJoin
	}
	if o.MaxLineBytes == 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}
	if o.Schema == nil {
		o.Schema = DefaultSchema()
	}
	return o
}
