package ris

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	rerrors "github.com/FocuswithJustin/ris/core/errors"
)

// RawLine is one logical input line with its line ending removed.
type RawLine struct {
	Text   string
	Offset int64 // byte offset of Text[0] in the source
	Number int   // 1-based
}

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// LineReader splits a byte stream into RawLines. CRLF, LF and a lone CR all
// end a line, and may be mixed within one input.
type LineReader struct {
	sc       *bufio.Scanner
	max      int
	consumed int64 // bytes handed out by split so far
	start    int64 // offset of the token returned by the last split
	scanned  int   // prefix of the pending data known to hold no line ending
	number   int
	err      error
}

// NewLineReader returns a LineReader over r. Lines longer than maxLine bytes
// fail with ErrLineTooLong; maxLine <= 0 selects DefaultMaxLineBytes.
func NewLineReader(r io.Reader, maxLine int) *LineReader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	l := &LineReader{sc: bufio.NewScanner(r), max: maxLine}
	l.sc.Buffer(make([]byte, 0, min(64<<10, maxLine+2)), maxLine+2)
	l.sc.Split(l.split)
	return l
}

// Next returns the next line, or io.EOF once the input is exhausted.
// Any other error is final: later calls return it again.
func (l *LineReader) Next() (RawLine, error) {
	if l.err != nil {
		return RawLine{}, l.err
	}
	if !l.sc.Scan() {
		switch err := l.sc.Err(); {
		case err == nil:
			l.err = io.EOF
		case errors.Is(err, bufio.ErrTooLong):
			l.err = &ParseError{Kind: ErrLineTooLong, Offset: l.consumed, Line: l.number + 1, Record: -1}
		default:
			l.err = rerrors.NewIO("read", "", err)
		}
		return RawLine{}, l.err
	}

	tok := l.sc.Bytes()
	off := l.start
	l.number++
	if l.number == 1 && bytes.HasPrefix(tok, byteOrderMark) {
		tok = tok[len(byteOrderMark):]
		off += int64(len(byteOrderMark))
	}
	if len(tok) > l.max {
		l.err = &ParseError{Kind: ErrLineTooLong, Offset: off, Line: l.number, Record: -1}
		return RawLine{}, l.err
	}
	if !utf8.Valid(tok) {
		bad := invalidUTF8At(tok)
		l.err = &ParseError{
			Kind:   ErrDecode,
			Offset: off + int64(bad),
			Line:   l.number,
			Record: -1,
			Text:   strings.ToValidUTF8(string(tok), "\uFFFD"),
		}
		return RawLine{}, l.err
	}
	return RawLine{Text: string(tok), Offset: off, Number: l.number}, nil
}

// Lines returns the number of lines read so far.
func (l *LineReader) Lines() int { return l.number }

// Bytes returns the number of input bytes consumed so far.
func (l *LineReader) Bytes() int64 { return l.consumed }

// split is a bufio.SplitFunc that ends lines at "\r\n", "\n" or "\r".
// It remembers how much of a partial line it already searched so that a
// very long line is scanned once, not once per buffer refill.
func (l *LineReader) split(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	from := l.scanned
	if from > len(data) {
		from = 0
	}
	i := bytes.IndexAny(data[from:], "\r\n")
	if i < 0 {
		if atEOF {
			return l.token(len(data), data)
		}
		l.scanned = len(data)
		return 0, nil, nil
	}
	i += from
	if data[i] == '\n' {
		return l.token(i+1, data[:i])
	}
	// data[i] == '\r': the next byte decides between CRLF and a lone CR.
	if i+1 < len(data) {
		if data[i+1] == '\n' {
			return l.token(i+2, data[:i])
		}
		return l.token(i+1, data[:i])
	}
	if atEOF {
		return l.token(i+1, data[:i])
	}
	l.scanned = i
	return 0, nil, nil
}

func (l *LineReader) token(advance int, tok []byte) (int, []byte, error) {
	l.start = l.consumed
	l.consumed += int64(advance)
	l.scanned = 0
	return advance, tok, nil
}

func invalidUTF8At(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
