// Package ris decodes RIS bibliographic exports into structured records.
//
// RIS is a line-oriented tag-value format. Every field line starts with a
// two-character tag followed by a separator and the value:
//
//	TY  - JOUR
//	AU  - Smith, J.
//	AU  - Doe, A.
//	TI  - A Title
//	ER  -
//
// A record spans from the type-declaration tag (TY) to the terminator tag
// (ER). Lines without a tag prefix continue the value of the previous field.
//
// # Pipeline
//
// Decoding is a single forward pass over three pull stages:
//
//   - LineReader: splits the input into RawLines, accepting CRLF, LF and CR
//     line endings and stripping a leading byte-order mark.
//   - Extractor: turns RawLines into TagEntries, joining continuation lines.
//   - Decoder: groups TagEntries into Records using a Schema.
//
// Each stage only reads from the previous one when its caller asks for the
// next element, so memory use is bounded by the largest record, not the
// input size.
//
// # Errors
//
// Errors are *ParseError values whose Kind is one of the package sentinels
// (ErrDecode, ErrOrphanContinuation, ErrMissingReferenceType, ...).
// Record-level problems are recoverable: the offending record is dropped
// and decoding resumes at the next TY. ParseStreaming reports every
// recoverable error as an element of the sequence; Parse skips them and
// returns only fatal errors.
//
// # Example
//
//	for rec, err := range ris.ParseStreaming(f, ris.DefaultOptions()) {
//	    if err != nil {
//	        log.Printf("skipped: %v", err)
//	        continue
//	    }
//	    fmt.Println(rec.Type, rec.Title())
//	}
package ris
