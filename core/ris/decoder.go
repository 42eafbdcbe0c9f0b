package ris

import (
	"errors"
	"io"
	"iter"
	"strings"
)

type state int

const (
	stateIdle     state = iota // between records, waiting for TY
	stateInRecord              // a record is open
	stateSkipping              // dropping the rest of a rejected record
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateInRecord:
		return "in-record"
	case stateSkipping:
		return "skipping"
	}
	return "unknown"
}

// Stats counts what a Decoder has seen so far.
type Stats struct {
	Records   int   // records returned
	Discarded int   // records dropped because of an error
	Errors    int   // errors returned, recoverable or not
	Lines     int   // lines read
	Bytes     int64 // input bytes consumed
}

// Decoder assembles Records from an RIS stream.
type Decoder struct {
	x      *Extractor
	opts   Options
	schema *Schema

	state state
	rec   *Record // open record while stateInRecord
	stray bool    // rec was opened by a field outside any record
	next  int     // index of the next record unit
	stats Stats
	err   error // terminal; returned by every later call
}

// NewDecoder returns a Decoder reading from r. Invalid options are reported
// by the first call to Next.
func NewDecoder(r io.Reader, opts Options) *Decoder {
	d := &Decoder{}
	if err := opts.Validate(); err != nil {
		d.err = err
		return d
	}
	d.opts = opts.withDefaults()
	d.schema = d.opts.Schema
	d.x = NewExtractor(NewLineReader(r, d.opts.MaxLineBytes), d.opts.Join)
	return d
}

// Next returns the next Record.
//
// A recoverable error is returned as (nil, err) with IsRecoverable(err)
// true, and the following call continues with the rest of the input.
// io.EOF marks the end of input. Any other error is terminal and is
// returned again by every later call.
func (d *Decoder) Next() (*Record, error) {
	if d.err != nil {
		return nil, d.err
	}
	for {
		e, err := d.x.Next()
		if err != nil {
			var pe *ParseError
			switch {
			case err == io.EOF:
				return d.finish()
			case errors.As(err, &pe) && pe.Recoverable:
				return nil, d.orphan(pe)
			default:
				return nil, d.fail(err)
			}
		}
		rec, err := d.entry(e)
		if rec != nil || err != nil {
			return rec, err
		}
	}
}

// All returns the remaining outcomes as a sequence. Iteration ends at the
// end of input or after the first error that is not recoverable.
func (d *Decoder) All() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := d.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) {
				return
			}
			if err != nil && !IsRecoverable(err) {
				return
			}
		}
	}
}

// Stats returns counters for the input decoded so far.
func (d *Decoder) Stats() Stats {
	s := d.stats
	if d.x != nil {
		s.Lines = d.x.Lines().Lines()
		s.Bytes = d.x.Lines().Bytes()
	}
	return s
}

func (d *Decoder) entry(e TagEntry) (*Record, error) {
	switch d.state {
	case stateSkipping:
		switch e.Tag {
		case TagType:
			d.open(e)
		case TagEnd:
			d.state = stateIdle
		}
		return nil, nil

	case stateIdle:
		switch e.Tag {
		case TagType:
			d.open(e)
			return nil, nil
		case TagEnd:
			pe := &ParseError{
				Kind:   ErrStrayField,
				Offset: e.Offset,
				Line:   e.Line,
				Record: -1,
				Tag:    e.Tag,
			}
			if d.opts.Mode == Strict {
				return nil, d.fail(pe)
			}
			return nil, d.report(pe)
		}
		if d.opts.Mode == Strict {
			return nil, d.fail(&ParseError{
				Kind:   ErrStrayField,
				Offset: e.Offset,
				Line:   e.Line,
				Record: -1,
				Tag:    e.Tag,
				Text:   e.Value,
			})
		}
		// Collected as a record without a type; rejected once it closes.
		d.open(e)
		d.rec.Type = ""
		d.stray = true
		d.apply(e)
		return nil, nil
	}

	switch e.Tag {
	case TagEnd:
		return d.close()
	case TagType:
		var pe *ParseError
		if d.stray || d.rec.Type == "" {
			pe = d.missingType()
		} else {
			pe = &ParseError{
				Kind:   ErrUnterminatedRecord,
				Offset: d.rec.Offset,
				Line:   d.rec.Line,
				Record: d.rec.Index,
				Tag:    TagType,
			}
		}
		d.discard()
		if pe.Kind == ErrUnterminatedRecord && d.opts.Mode == Strict {
			return nil, d.fail(pe)
		}
		d.open(e)
		return nil, d.report(pe)
	}
	d.apply(e)
	return nil, nil
}

func (d *Decoder) open(e TagEntry) {
	d.rec = &Record{
		Type:   strings.TrimSpace(e.Value),
		Fields: make(map[string]Value),
		Index:  d.next,
		Offset: e.Offset,
		Line:   e.Line,
	}
	d.next++
	d.stray = false
	d.state = stateInRecord
}

func (d *Decoder) apply(e TagEntry) {
	f, ok := d.schema.Lookup(e.Tag)
	if !ok || f.Kind == KindUnknown {
		if d.rec.Unknown == nil {
			d.rec.Unknown = make(map[string][]string)
		}
		d.rec.Unknown[e.Tag] = append(d.rec.Unknown[e.Tag], e.Value)
		return
	}
	v, seen := d.rec.Fields[f.Name]
	if f.Multiplicity == Append {
		d.rec.Fields[f.Name] = Value{Tag: f.Tag, Items: append(v.Items, e.Value), List: true}
		return
	}
	if seen && d.opts.Duplicates == FirstWins {
		return
	}
	d.rec.Fields[f.Name] = Value{Tag: f.Tag, Items: []string{e.Value}}
}

func (d *Decoder) close() (*Record, error) {
	if d.rec.Type == "" {
		pe := d.missingType()
		d.discard()
		return nil, d.report(pe)
	}
	rec := d.rec
	d.rec = nil
	d.state = stateIdle
	d.stats.Records++
	return rec, nil
}

func (d *Decoder) discard() {
	d.rec = nil
	d.stray = false
	d.stats.Discarded++
	d.state = stateIdle
}

func (d *Decoder) missingType() *ParseError {
	pe := &ParseError{
		Kind:   ErrMissingReferenceType,
		Offset: d.rec.Offset,
		Line:   d.rec.Line,
		Record: d.rec.Index,
	}
	if !d.stray {
		pe.Tag = TagType
	}
	return pe
}

// orphan handles a continuation line that had no field to extend.
func (d *Decoder) orphan(pe *ParseError) error {
	if d.state == stateInRecord {
		pe.Record = d.rec.Index
	}
	if d.opts.Mode == Strict {
		return d.fail(pe)
	}
	if d.state == stateInRecord {
		d.discard()
		d.state = stateSkipping
	}
	return d.report(pe)
}

// finish handles the end of input.
func (d *Decoder) finish() (*Record, error) {
	d.err = io.EOF
	if d.state != stateInRecord {
		return nil, io.EOF
	}
	if d.stray {
		pe := d.missingType()
		d.discard()
		return nil, d.report(pe)
	}
	pe := &ParseError{
		Kind:   ErrTruncatedRecord,
		Offset: d.rec.Offset,
		Line:   d.rec.Line,
		Record: d.rec.Index,
		Tag:    TagType,
	}
	d.discard()
	d.stats.Errors++
	return nil, pe
}

func (d *Decoder) report(pe *ParseError) error {
	pe.Recoverable = true
	d.stats.Errors++
	return pe
}

// fail records a terminal error, attributing it to the open record.
func (d *Decoder) fail(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Recoverable = false
		if pe.Record < 0 && d.rec != nil {
			pe.Record = d.rec.Index
		}
	}
	if d.rec != nil {
		d.discard()
	}
	d.stats.Errors++
	d.err = err
	return err
}
