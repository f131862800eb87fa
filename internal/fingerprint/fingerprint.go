// Package fingerprint derives content-addressed identifiers for uploads.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize bounds how much of a stream is held in memory at once
const ChunkSize = 32 * 1024

// ErrTooLarge is returned by Spool when the stream exceeds its byte limit
var ErrTooLarge = errors.New("stream exceeds size limit")

// Fingerprint is a lowercase hex SHA-256 digest
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// Sum hashes r in bounded chunks. On a read failure no digest is returned.
func Sum(r io.Reader) (Fingerprint, int64, error) {
	h := sha256.New()
	// hide any WriterTo so reads stay bounded by the buffer
	n, err := io.CopyBuffer(h, struct{ io.Reader }{r}, make([]byte, ChunkSize))
	if err != nil {
		return "", 0, fmt.Errorf("fingerprint: read after %d bytes: %w", n, err)
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil))), n, nil
}

// Spooled is an upload copied to a temporary file while it was hashed
type Spooled struct {
	Path        string
	Fingerprint Fingerprint
	Size        int64
}

// Open reopens the spooled content for reading
func (s *Spooled) Open() (*os.File, error) {
	return os.Open(s.Path)
}

// Remove deletes the temporary file
func (s *Spooled) Remove() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Spool copies r into a temporary file under dir while hashing it.
// maxBytes <= 0 disables the size limit.
func Spool(r io.Reader, dir string, maxBytes int64) (*Spooled, error) {
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("fingerprint: create spool file: %w", err)
	}

	var src io.Reader = struct{ io.Reader }{r}
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}

	h := sha256.New()
	n, err := io.CopyBuffer(io.MultiWriter(tmp, h), src, make([]byte, ChunkSize))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && maxBytes > 0 && n > maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(tmp.Name())
		if errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("fingerprint: spool: %w (limit %d bytes)", err, maxBytes)
		}
		return nil, fmt.Errorf("fingerprint: spool after %d bytes: %w", n, err)
	}

	return &Spooled{
		Path:        tmp.Name(),
		Fingerprint: Fingerprint(hex.EncodeToString(h.Sum(nil))),
		Size:        n,
	}, nil
}
