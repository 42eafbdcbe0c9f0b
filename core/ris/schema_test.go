package ris

import (
	"errors"
	"sync"
	"testing"

	rerrors "github.com/FocuswithJustin/ris/core/errors"
)

func TestDefaultSchemaLookup(t *testing.T) {
	tests := []struct {
		tag          string
		name         string
		kind         Kind
		multiplicity Multiplicity
	}{
		{"TY", "type_of_reference", KindType, Replace},
		{"AU", "authors", KindList, Append},
		{"A1", "first_authors", KindList, Append},
		{"KW", "keywords", KindList, Append},
		{"N1", "notes", KindList, Append},
		{"TI", "title", KindText, Replace},
		{"PY", "year", KindDate, Replace},
		{"DA", "date", KindDate, Replace},
		{"UK", "unknown_tag", KindUnknown, Replace},
	}
	s := DefaultSchema()
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			f, ok := s.Lookup(tt.tag)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.tag)
			}
			if f.Name != tt.name {
				t.Errorf("Name = %q, want %q", f.Name, tt.name)
			}
			if f.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", f.Kind, tt.kind)
			}
			if f.Multiplicity != tt.multiplicity {
				t.Errorf("Multiplicity = %v, want %v", f.Multiplicity, tt.multiplicity)
			}
			byName, ok := s.ByName(tt.name)
			if !ok || byName.Tag != tt.tag {
				t.Errorf("ByName(%q) = %+v, %v", tt.name, byName, ok)
			}
		})
	}

	if _, ok := s.Lookup("ER"); ok {
		t.Error("ER should not map to a field")
	}
	if _, ok := s.Lookup("XX"); ok {
		t.Error("XX should not be known")
	}
}

func TestDefaultSchemaShared(t *testing.T) {
	if DefaultSchema() != DefaultSchema() {
		t.Error("DefaultSchema() should return the same table")
	}
	fields := DefaultSchema().Fields()
	if fields[0].Tag != TagType {
		t.Errorf("first field = %s, want TY", fields[0].Tag)
	}
	fields[0].Name = "changed"
	if f, _ := DefaultSchema().Lookup(TagType); f.Name != "type_of_reference" {
		t.Error("Fields() exposed the shared table")
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ParseBytes([]byte(journalRecord), DefaultOptions()); err != nil {
				t.Errorf("Parse() error = %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestNewSchemaErrors(t *testing.T) {
	ty := FieldSpec{Tag: "TY", Name: "type", Kind: KindType}
	tests := []struct {
		name  string
		specs []FieldSpec
	}{
		{"no type", []FieldSpec{{Tag: "TI", Name: "title"}}},
		{"two types", []FieldSpec{ty, {Tag: "T2", Name: "t2", Kind: KindType}}},
		{"bad tag", []FieldSpec{ty, {Tag: "t1", Name: "title"}}},
		{"long tag", []FieldSpec{ty, {Tag: "TIT", Name: "title"}}},
		{"ER tag", []FieldSpec{ty, {Tag: "ER", Name: "end"}}},
		{"no name", []FieldSpec{ty, {Tag: "TI"}}},
		{"duplicate tag", []FieldSpec{ty, {Tag: "TI", Name: "a"}, {Tag: "TI", Name: "b"}}},
		{"duplicate name", []FieldSpec{ty, {Tag: "TI", Name: "a"}, {Tag: "T1", Name: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.specs)
			if err == nil {
				t.Fatal("NewSchema() succeeded, want error")
			}
			if !errors.Is(err, rerrors.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCustomSchema(t *testing.T) {
	s, err := NewSchema([]FieldSpec{
		{Tag: "TY", Name: "kind", Kind: KindType},
		{Tag: "TI", Name: "heading"},
		{Tag: "AU", Name: "writers", Multiplicity: Append},
		{Tag: "KW", Name: "tags", Kind: KindList},
	})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	if f, _ := s.Lookup("KW"); f.Multiplicity != Append {
		t.Error("list fields should append")
	}
	if s.Len() != 4 || s.Rank("AU") != 2 || s.Rank("XX") != -1 {
		t.Errorf("Len() = %d, Rank(AU) = %d", s.Len(), s.Rank("AU"))
	}

	opts := DefaultOptions()
	opts.Schema = s
	recs, err := ParseBytes([]byte(journalRecord), opts)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	rec := recs[0]
	if rec.Get("heading") != "A Title" {
		t.Errorf("heading = %q", rec.Get("heading"))
	}
	if got := rec.List("writers"); len(got) != 2 {
		t.Errorf("writers = %q", got)
	}
	if rec.Title() != "" {
		t.Errorf("Title() = %q, want empty under a custom schema", rec.Title())
	}
}

func TestKindString(t *testing.T) {
	if KindDate.String() != "date" || Kind(42).String() != "Kind(42)" {
		t.Errorf("Kind strings = %s, %s", KindDate, Kind(42))
	}
	if Append.String() != "append" || Replace.String() != "replace" {
		t.Errorf("Multiplicity strings = %s, %s", Append, Replace)
	}
}
