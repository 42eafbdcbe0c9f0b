// Package source opens RIS inputs for decoding. It accepts plain,
// gzip-compressed and xz-compressed files or stdin, and fingerprints the
// decompressed bytes as they are read.
package source

import (
	"bufio"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	rerrors "github.com/FocuswithJustin/ris/core/errors"
	"github.com/FocuswithJustin/ris/internal/validation"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Fingerprint identifies the decompressed content of an input.
type Fingerprint struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Bytes  int64  `json:"bytes"`
}

// Source is an opened input. Reads return decompressed bytes.
type Source struct {
	Name string
	Type validation.FileType

	r            io.Reader
	file         io.Closer
	decompressor io.Closer

	sha256 hash.Hash
	blake3 *blake3.Hasher
	n      int64
}

var stdin io.ReadCloser = os.Stdin

// Open opens path, or stdin for "-".
func Open(path string) (*Source, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, rerrors.NewIO("open", path, err)
	}

	var f io.ReadCloser
	if path == Stdin {
		f = io.NopCloser(stdin)
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, rerrors.NewIO("open", path, err)
		}
		f = file
	}

	s, err := newSource(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.file = f
	return s, nil
}

// newSource wraps r, detecting compression from its first bytes. name is
// used for messages and for the extension check.
func newSource(name string, r io.Reader) (*Source, error) {
	br := bufio.NewReaderSize(r, validation.HeaderSize)
	header, err := br.Peek(validation.HeaderSize)
	if err != nil && !rerrors.Is(err, io.EOF) && !rerrors.Is(err, bufio.ErrBufferFull) {
		return nil, rerrors.NewIO("read", name, err)
	}

	ft, err := validation.CheckFileType(header, name)
	if err != nil {
		return nil, rerrors.NewIO("detect", name, err)
	}

	s := &Source{
		Name:   name,
		Type:   ft,
		sha256: sha256.New(),
		blake3: blake3.New(),
	}

	var reader io.Reader = br
	switch ft {
	case validation.FileTypeXZ:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, rerrors.NewIO("xz reader", name, err)
		}
		reader = xzr
	case validation.FileTypeGzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, rerrors.NewIO("gzip reader", name, err)
		}
		reader = gzr
		s.decompressor = gzr
	}

	s.r = io.TeeReader(reader, io.MultiWriter(s.sha256, s.blake3))
	return s, nil
}

// Read reads decompressed input.
func (s *Source) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.n += int64(n)
	if err != nil && err != io.EOF {
		err = rerrors.NewIO("read", s.Name, err)
	}
	return n, err
}

// Fingerprint returns hashes of the bytes read so far. After the input has
// been read to the end it identifies the whole decompressed content.
func (s *Source) Fingerprint() Fingerprint {
	return Fingerprint{
		SHA256: hex.EncodeToString(s.sha256.Sum(nil)),
		BLAKE3: hex.EncodeToString(s.blake3.Sum(nil)),
		Bytes:  s.n,
	}
}

// Close closes the decompressor and the underlying file.
func (s *Source) Close() error {
	var errs []error
	if s.decompressor != nil {
		if err := s.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return rerrors.NewIO("close", s.Name, errs[0])
	}
	return nil
}

// ReadFile reads and decompresses a whole input into memory.
func ReadFile(path string) ([]byte, Fingerprint, error) {
	s, err := Open(path)
	if err != nil {
		return nil, Fingerprint{}, err
	}
	defer s.Close()

	data, err := io.ReadAll(s)
	if err != nil {
		return nil, Fingerprint{}, err
	}
	return data, s.Fingerprint(), nil
}
