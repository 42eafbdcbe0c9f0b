package ris

import "strings"

// TagEntry is one field: a tag and its value joined across continuation
// lines. Offset and Line locate the field-start line.
type TagEntry struct {
	Tag    string
	Value  string
	Offset int64
	Line   int
}

// Extractor reads RawLines and produces TagEntries.
type Extractor struct {
	lines *LineReader
	join  string

	open bool
	cur  TagEntry
	buf  []byte // value of cur, grown in place across continuation lines
	err  error  // deferred until the open entry has been flushed
}

// NewExtractor returns an Extractor over lines. join is placed between a
// value and each continuation line.
func NewExtractor(lines *LineReader, join string) *Extractor {
	if join == "" {
		join = DefaultJoin
	}
	return &Extractor{lines: lines, join: join}
}

// Next returns the next complete TagEntry.
//
// An orphan continuation line is returned as a recoverable *ParseError and
// the Extractor stays usable. io.EOF and fatal errors are returned once any
// open entry has been delivered, and are repeated on later calls.
func (x *Extractor) Next() (TagEntry, error) {
	if x.err != nil {
		return TagEntry{}, x.err
	}
	for {
		line, err := x.lines.Next()
		if err != nil {
			if x.open {
				x.err = err
				return x.flush(), nil
			}
			x.err = err
			return TagEntry{}, err
		}

		if tag, value, ok := splitField(line.Text); ok {
			if x.open {
				prev := x.flush()
				x.start(tag, value, line)
				return prev, nil
			}
			x.start(tag, value, line)
			continue
		}

		if isBlank(line.Text) {
			// A blank line closes the field but not the record.
			if x.open {
				return x.flush(), nil
			}
			continue
		}

		if x.open {
			x.buf = append(x.buf, x.join...)
			x.buf = append(x.buf, line.Text...)
			continue
		}

		return TagEntry{}, &ParseError{
			Kind:        ErrOrphanContinuation,
			Offset:      line.Offset,
			Line:        line.Number,
			Record:      -1,
			Text:        line.Text,
			Recoverable: true,
		}
	}
}

// Lines exposes the underlying LineReader.
func (x *Extractor) Lines() *LineReader { return x.lines }

func (x *Extractor) start(tag, value string, line RawLine) {
	x.cur = TagEntry{Tag: tag, Offset: line.Offset, Line: line.Number}
	x.buf = append(x.buf[:0], value...)
	x.open = true
}

func (x *Extractor) flush() TagEntry {
	e := x.cur
	e.Value = string(x.buf)
	x.buf = x.buf[:0]
	x.open = false
	return e
}

// splitField recognises a field-start line: a tag of an uppercase letter
// followed by an uppercase letter or digit, one or two spaces, a hyphen,
// and then either the end of the line or a space. The value is the rest of
// the line with that single space removed.
func splitField(text string) (tag, value string, ok bool) {
	if len(text) < 4 || !isTagLead(text[0]) || !isTagTail(text[1]) {
		return "", "", false
	}
	i := 2
	for i < 4 && i < len(text) && text[i] == ' ' {
		i++
	}
	if i == 2 || i >= len(text) || text[i] != '-' {
		return "", "", false
	}
	i++
	if i < len(text) {
		if text[i] != ' ' {
			return "", "", false
		}
		i++
	}
	return text[:2], text[i:], true
}

func isTagLead(c byte) bool { return 'A' <= c && c <= 'Z' }

func isTagTail(c byte) bool { return 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' }

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
