// Package validation checks user-supplied paths and recognises input file
// types before they are handed to the decoder.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	rerrors "github.com/FocuswithJustin/ris/core/errors"
)

// Limits on user-supplied names.
const (
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// HeaderSize is how many leading bytes DetectFileType needs.
	HeaderSize = 512
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrTypeMismatch     = errors.New("file type mismatch")
)

// ValidatePath checks an input path for length limits and invalid
// characters. "-" (stdin) is accepted.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// ValidateFilename checks if a filename is safe and does not contain malicious characters.
// It rejects filenames with path separators, control characters, and dangerous patterns.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}

	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}

	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}

	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}

	// Reject filenames starting with hyphen (can be confused with command flags)
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}

	return nil
}

// OutputName derives the name of a per-input output file: the input's base
// name with compression and RIS extensions removed and ext appended.
func OutputName(input, ext string) (string, error) {
	name := filepath.Base(input)
	if input == "-" {
		name = "stdin"
	}
	lower := strings.ToLower(name)
	for _, suffix := range []string{".gz", ".xz", ".ris", ".txt"} {
		if strings.HasSuffix(lower, suffix) {
			name = name[:len(name)-len(suffix)]
			lower = lower[:len(lower)-len(suffix)]
		}
	}

	var cleaned strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\':
			cleaned.WriteRune('_')
		case !unicode.IsControl(r):
			cleaned.WriteRune(r)
		}
	}
	name = strings.TrimLeft(cleaned.String(), "-") + ext

	if err := ValidateFilename(name); err != nil {
		return "", err
	}
	return name, nil
}

// FileType is a detected input type.
type FileType string

const (
	FileTypeGzip    FileType = "gzip"
	FileTypeXZ      FileType = "xz"
	FileTypeZip     FileType = "zip"
	FileTypeRIS     FileType = "ris"
	FileTypeText    FileType = "text"
	FileTypeUnknown FileType = "unknown"
)

// Compressed reports whether the type wraps another stream.
func (t FileType) Compressed() bool {
	return t == FileTypeGzip || t == FileTypeXZ
}

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFileType classifies the first bytes of an input.
func DetectFileType(header []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(header, sig.magic) {
			return sig.fileType
		}
	}
	if looksLikeRIS(header) {
		return FileTypeRIS
	}
	if isLikelyText(header) {
		return FileTypeText
	}
	return FileTypeUnknown
}

// CheckFileType detects the type of header and verifies it against the
// extension of filename. A compressed extension on uncompressed content, or
// the reverse, is a mismatch. Zip archives are unsupported.
func CheckFileType(header []byte, filename string) (FileType, error) {
	detected := DetectFileType(header)
	expected := fileTypeFromExtension(filename)

	switch {
	case detected == FileTypeZip:
		return detected, rerrors.NewUnsupported("container", "zip archives")
	case expected.Compressed() && detected != expected:
		return FileTypeUnknown, fmt.Errorf("%w: extension suggests %s but content is %s", ErrTypeMismatch, expected, detected)
	case detected.Compressed() && expected != FileTypeUnknown && expected != detected:
		return FileTypeUnknown, fmt.Errorf("%w: extension suggests %s but content is %s", ErrTypeMismatch, expected, detected)
	}
	return detected, nil
}

func fileTypeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gz", ".tgz":
		return FileTypeGzip
	case ".xz":
		return FileTypeXZ
	case ".zip":
		return FileTypeZip
	case ".ris":
		return FileTypeRIS
	case ".txt":
		return FileTypeText
	default:
		return FileTypeUnknown
	}
}

// looksLikeRIS reports whether the first non-blank line is a TY field.
func looksLikeRIS(buf []byte) bool {
	buf = bytes.TrimPrefix(buf, utf8BOM)
	buf = bytes.TrimLeft(buf, " \t\r\n")
	return bytes.HasPrefix(buf, []byte("TY  -")) || bytes.HasPrefix(buf, []byte("TY -"))
}

// isLikelyText checks if the buffer contains likely text content.
// Returns true if the buffer appears to be text (UTF-8, ASCII).
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}

	// Check for null bytes (strong indicator of binary content)
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
		// UTF-8 continuation bytes (0x80-0xBF) and start bytes (0xC0-0xFD) are neutral
	}

	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
