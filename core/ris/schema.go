package ris

import (
	"fmt"
	"slices"

	rerrors "github.com/FocuswithJustin/ris/core/errors"
)

// TagType declares the reference type and opens a record.
const TagType = "TY"

// Kind is the value kind of a field.
type Kind int

const (
	// KindText is a single plain-text value.
	KindText Kind = iota
	// KindList is an ordered list of text values.
	KindList
	// KindType is the reference-type code.
	KindType
	// KindDate is a date in YYYY/MM/DD/other form.
	KindDate
	// KindUnknown fields are passed through verbatim in Record.Unknown.
	KindUnknown
)

var kindNames = [...]string{"text", "list", "type", "date", "unknown"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Multiplicity decides what a repeated tag does within one record.
type Multiplicity int

const (
	// Replace keeps one value, chosen by Options.Duplicates.
	Replace Multiplicity = iota
	// Append accumulates every occurrence in source order.
	Append
)

func (m Multiplicity) String() string {
	if m == Append {
		return "append"
	}
	return "replace"
}

// FieldSpec maps one tag to a semantic field.
type FieldSpec struct {
	Tag          string
	Name         string
	Kind         Kind
	Multiplicity Multiplicity
	Description  string
}

// Schema is an immutable tag-to-field table. It is safe for concurrent use.
type Schema struct {
	byTag  map[string]FieldSpec
	byName map[string]FieldSpec
	order  []string
}

// NewSchema builds a Schema from specs. Tags and names must be unique, tags
// must be two characters, and exactly one field must have KindType.
func NewSchema(specs []FieldSpec) (*Schema, error) {
	s := &Schema{
		byTag:  make(map[string]FieldSpec, len(specs)),
		byName: make(map[string]FieldSpec, len(specs)),
		order:  make([]string, 0, len(specs)),
	}
	types := 0
	for _, f := range specs {
		if len(f.Tag) != 2 || !isTagLead(f.Tag[0]) || !isTagTail(f.Tag[1]) {
			return nil, &rerrors.ValidationError{Field: "tag", Value: f.Tag, Message: "must be an uppercase letter followed by an uppercase letter or digit"}
		}
		if f.Tag == TagEnd {
			return nil, &rerrors.ValidationError{Field: "tag", Value: f.Tag, Message: "terminator tag cannot carry a field"}
		}
		if f.Name == "" {
			return nil, &rerrors.ValidationError{Field: "name", Value: f.Tag, Message: "field name is required"}
		}
		if _, dup := s.byTag[f.Tag]; dup {
			return nil, &rerrors.ValidationError{Field: "tag", Value: f.Tag, Message: "duplicate tag"}
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, &rerrors.ValidationError{Field: "name", Value: f.Name, Message: "duplicate field name"}
		}
		if f.Kind == KindType {
			if f.Tag != TagType {
				return nil, &rerrors.ValidationError{Field: "tag", Value: f.Tag, Message: "only TY can declare the reference type"}
			}
			types++
		}
		if f.Kind == KindList {
			f.Multiplicity = Append
		}
		s.byTag[f.Tag] = f
		s.byName[f.Name] = f
		s.order = append(s.order, f.Tag)
	}
	if types != 1 {
		return nil, rerrors.NewValidation("schema", "exactly one TY field of kind type is required")
	}
	return s, nil
}

// Lookup returns the field for tag.
func (s *Schema) Lookup(tag string) (FieldSpec, bool) {
	f, ok := s.byTag[tag]
	return f, ok
}

// ByName returns the field with the given semantic name.
func (s *Schema) ByName(name string) (FieldSpec, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.order))
	for i, tag := range s.order {
		out[i] = s.byTag[tag]
	}
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.order) }

// Rank returns the declaration index of tag, or -1.
func (s *Schema) Rank(tag string) int {
	return slices.Index(s.order, tag)
}

var defaultSchema = mustSchema(defaultFields)

// DefaultSchema returns the shared table for the standard RIS tag set.
func DefaultSchema() *Schema { return defaultSchema }

func mustSchema(specs []FieldSpec) *Schema {
	s, err := NewSchema(specs)
	if err != nil {
		panic(err)
	}
	return s
}

var defaultFields = []FieldSpec{
	{Tag: "TY", Name: "type_of_reference", Kind: KindType, Description: "Type of reference"},
	{Tag: "A1", Name: "first_authors", Kind: KindList, Description: "Primary authors"},
	{Tag: "A2", Name: "secondary_authors", Kind: KindList, Description: "Secondary authors"},
	{Tag: "A3", Name: "tertiary_authors", Kind: KindList, Description: "Tertiary authors"},
	{Tag: "A4", Name: "subsidiary_authors", Kind: KindList, Description: "Subsidiary authors"},
	{Tag: "AB", Name: "abstract", Description: "Abstract"},
	{Tag: "AD", Name: "author_address", Description: "Author address"},
	{Tag: "AN", Name: "accession_number", Description: "Accession number"},
	{Tag: "AU", Name: "authors", Kind: KindList, Description: "Authors"},
	{Tag: "C1", Name: "custom1", Description: "Custom 1"},
	{Tag: "C2", Name: "custom2", Description: "Custom 2"},
	{Tag: "C3", Name: "custom3", Description: "Custom 3"},
	{Tag: "C4", Name: "custom4", Description: "Custom 4"},
	{Tag: "C5", Name: "custom5", Description: "Custom 5"},
	{Tag: "C6", Name: "custom6", Description: "Custom 6"},
	{Tag: "C7", Name: "custom7", Description: "Custom 7"},
	{Tag: "C8", Name: "custom8", Description: "Custom 8"},
	{Tag: "CA", Name: "caption", Description: "Caption"},
	{Tag: "CN", Name: "call_number", Description: "Call number"},
	{Tag: "CY", Name: "place_published", Description: "Place published"},
	{Tag: "DA", Name: "date", Kind: KindDate, Description: "Date"},
	{Tag: "DB", Name: "name_of_database", Description: "Name of database"},
	{Tag: "DO", Name: "doi", Description: "DOI"},
	{Tag: "DP", Name: "database_provider", Description: "Database provider"},
	{Tag: "ET", Name: "edition", Description: "Edition"},
	{Tag: "EP", Name: "end_page", Description: "End page"},
	{Tag: "ID", Name: "id", Description: "Reference ID"},
	{Tag: "IS", Name: "number", Description: "Issue number"},
	{Tag: "J2", Name: "alternate_title1", Description: "Alternate title"},
	{Tag: "JA", Name: "alternate_title2", Description: "Journal abbreviation"},
	{Tag: "JF", Name: "alternate_title3", Description: "Journal full name"},
	{Tag: "JO", Name: "journal_name", Description: "Journal name"},
	{Tag: "KW", Name: "keywords", Kind: KindList, Description: "Keywords"},
	{Tag: "L1", Name: "file_attachments1", Kind: KindList, Description: "File attachments"},
	{Tag: "L2", Name: "file_attachments2", Kind: KindList, Description: "Full-text links"},
	{Tag: "L4", Name: "figure", Kind: KindList, Description: "Figures"},
	{Tag: "LA", Name: "language", Description: "Language"},
	{Tag: "LB", Name: "label", Description: "Label"},
	{Tag: "M1", Name: "note", Description: "Miscellaneous 1"},
	{Tag: "M3", Name: "type_of_work", Description: "Type of work"},
	{Tag: "N1", Name: "notes", Kind: KindList, Description: "Notes"},
	{Tag: "N2", Name: "notes_abstract", Description: "Abstract notes"},
	{Tag: "NV", Name: "number_of_volumes", Description: "Number of volumes"},
	{Tag: "OP", Name: "original_publication", Description: "Original publication"},
	{Tag: "PB", Name: "publisher", Description: "Publisher"},
	{Tag: "PY", Name: "year", Kind: KindDate, Description: "Publication year"},
	{Tag: "RI", Name: "reviewed_item", Description: "Reviewed item"},
	{Tag: "RN", Name: "research_notes", Description: "Research notes"},
	{Tag: "RP", Name: "reprint_edition", Description: "Reprint edition"},
	{Tag: "SE", Name: "section", Description: "Section"},
	{Tag: "SN", Name: "issn", Description: "ISSN/ISBN"},
	{Tag: "SP", Name: "start_page", Description: "Start page"},
	{Tag: "ST", Name: "short_title", Description: "Short title"},
	{Tag: "T1", Name: "primary_title", Description: "Primary title"},
	{Tag: "T2", Name: "secondary_title", Description: "Secondary title"},
	{Tag: "T3", Name: "tertiary_title", Description: "Tertiary title"},
	{Tag: "TA", Name: "translated_authors", Kind: KindList, Description: "Translated authors"},
	{Tag: "TI", Name: "title", Description: "Title"},
	{Tag: "TT", Name: "translated_title", Description: "Translated title"},
	{Tag: "UR", Name: "urls", Kind: KindList, Description: "URLs"},
	{Tag: "VL", Name: "volume", Description: "Volume"},
	{Tag: "Y1", Name: "publication_year", Kind: KindDate, Description: "Primary date"},
	{Tag: "Y2", Name: "access_date", Kind: KindDate, Description: "Access date"},
	{Tag: "UK", Name: "unknown_tag", Kind: KindUnknown, Description: "Unknown tag, passed through"},
}
