package ris

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// Value is the content of one semantic field. Single-valued fields hold
// exactly one item.
type Value struct {
	Tag   string
	Items []string
	List  bool
}

// String returns the single value, or list items joined by "; ".
func (v Value) String() string {
	if !v.List && len(v.Items) > 0 {
		return v.Items[0]
	}
	return strings.Join(v.Items, "; ")
}

// MarshalJSON encodes single values as a string and lists as an array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.List {
		if v.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Items)
	}
	return json.Marshal(v.String())
}

func (v Value) equal(o Value) bool {
	return v.Tag == o.Tag && v.List == o.List && slices.Equal(v.Items, o.Items)
}

// Record is one completed reference. It is not retained by the Decoder
// after it is returned.
type Record struct {
	// Type is the TY code, never empty.
	Type string
	// Fields maps semantic field names to values.
	Fields map[string]Value
	// Unknown holds values of tags outside the schema, in source order.
	Unknown map[string][]string

	Index  int   // 0-based position among the records opened in the input
	Offset int64 // byte offset of the TY line
	Line   int   // line number of the TY line
}

// Get returns the value of a field as text.
func (r *Record) Get(name string) string {
	return r.Fields[name].String()
}

// List returns the items of a field.
func (r *Record) List(name string) []string {
	return r.Fields[name].Items
}

// Has reports whether the field was present.
func (r *Record) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// Title returns the first present of title, primary_title, short_title.
func (r *Record) Title() string {
	for _, name := range []string{"title", "primary_title", "short_title"} {
		if v, ok := r.Fields[name]; ok {
			return v.String()
		}
	}
	return ""
}

// Authors returns authors followed by first_authors.
func (r *Record) Authors() []string {
	out := slices.Clone(r.List("authors"))
	return append(out, r.List("first_authors")...)
}

// ReferenceType resolves Type against the standard vocabulary.
func (r *Record) ReferenceType() ReferenceType {
	t, _ := LookupType(r.Type)
	return t
}

// Date parses a date-kind field.
func (r *Record) Date(name string) (Date, error) {
	return ParseDate(r.Get(name))
}

// Equal reports whether r and o carry the same content. Positions
// (Index, Offset, Line) are not compared.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Type != o.Type {
		return false
	}
	if !maps.EqualFunc(r.Fields, o.Fields, Value.equal) {
		return false
	}
	return maps.EqualFunc(r.Unknown, o.Unknown, slices.Equal[[]string])
}

type recordJSON struct {
	Type    string              `json:"type"`
	Index   int                 `json:"index"`
	Offset  int64               `json:"offset"`
	Line    int                 `json:"line"`
	Fields  map[string]Value    `json:"fields"`
	Unknown map[string][]string `json:"unknown,omitempty"`
}

// MarshalJSON encodes the record with lowercase keys.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Type:    r.Type,
		Index:   r.Index,
		Offset:  r.Offset,
		Line:    r.Line,
		Fields:  r.Fields,
		Unknown: r.Unknown,
	})
}
