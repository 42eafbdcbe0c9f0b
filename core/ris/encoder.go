package ris

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	rerrors "github.com/FocuswithJustin/ris/core/errors"
)

// Encoder writes Records in RIS form.
type Encoder struct {
	w      *bufio.Writer
	schema *Schema
}

// NewEncoder returns an Encoder writing to w. A nil schema selects
// DefaultSchema().
func NewEncoder(w io.Writer, schema *Schema) *Encoder {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Encoder{w: bufio.NewWriter(w), schema: schema}
}

// Encode writes rec followed by an ER line and a blank line. Known fields
// come in schema order and unknown tags in tag order. Values are split on
// "\n" into continuation lines; a value that would not read back the same
// is rejected before anything is written.
func (e *Encoder) Encode(rec *Record) error {
	if strings.TrimSpace(rec.Type) == "" {
		return rerrors.NewValidation("type", "record has no reference type")
	}
	if err := e.check(TagType, rec.Type); err != nil {
		return err
	}
	for _, v := range rec.Fields {
		for _, item := range v.Items {
			if err := e.check(v.Tag, item); err != nil {
				return err
			}
		}
	}
	for tag, items := range rec.Unknown {
		for _, item := range items {
			if err := e.check(tag, item); err != nil {
				return err
			}
		}
	}

	e.line(TagType, rec.Type)
	for _, f := range e.schema.Fields() {
		if f.Kind == KindType {
			continue
		}
		v, ok := rec.Fields[f.Name]
		if !ok {
			continue
		}
		for _, item := range v.Items {
			e.line(f.Tag, item)
		}
	}
	for _, tag := range slices.Sorted(maps.Keys(rec.Unknown)) {
		for _, item := range rec.Unknown[tag] {
			e.line(tag, item)
		}
	}
	e.w.WriteString(TagEnd + "  - \n\n")
	return e.w.Flush()
}

func (e *Encoder) line(tag, value string) {
	first, rest, _ := strings.Cut(value, "\n")
	fmt.Fprintf(e.w, "%s  - %s\n", tag, first)
	for rest != "" {
		var next string
		next, rest, _ = strings.Cut(rest, "\n")
		e.w.WriteString(next)
		e.w.WriteByte('\n')
	}
}

// check rejects values whose continuation lines would be read as blank
// lines or as new fields.
func (e *Encoder) check(tag string, value string) error {
	if strings.ContainsRune(value, '\r') {
		return &rerrors.ValidationError{Field: tag, Value: value, Message: "value contains a carriage return"}
	}
	_, rest, found := strings.Cut(value, "\n")
	if !found {
		return nil
	}
	for _, cont := range strings.Split(rest, "\n") {
		if isBlank(cont) {
			return &rerrors.ValidationError{Field: tag, Value: value, Message: "value contains a blank line"}
		}
		if _, _, ok := splitField(cont); ok {
			return &rerrors.ValidationError{Field: tag, Value: value, Message: "continuation line looks like a field"}
		}
	}
	return nil
}
