package xetcas

import (
	"fmt"
	"os"
)

// Output receives reconstructed file bytes at explicit offsets, in whatever
// order the scheduler produces them. Implementations must be safe to treat
// as write-only and need not support concurrent calls; the downloader
// writes each term's spliced bytes sequentially in plan order.
type Output interface {
	// WriteAt writes p starting at the given offset into the logical
	// output file.
	WriteAt(p []byte, offset int64) (int, error)
}

// MemoryOutput accumulates reconstructed bytes into an in-memory buffer.
// It is the destination used by Download.
type MemoryOutput struct {
	buf []byte
}

// NewMemoryOutput returns a MemoryOutput preallocated to size bytes.
func NewMemoryOutput(size int) *MemoryOutput {
	return &MemoryOutput{buf: make([]byte, size)}
}

// WriteAt copies p into the internal buffer at offset, growing it if
// necessary.
func (m *MemoryOutput) WriteAt(p []byte, offset int64) (int, error) {
	end := offset + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[offset:end], p)
	return len(p), nil
}

// Bytes returns the accumulated output.
func (m *MemoryOutput) Bytes() []byte {
	return m.buf
}

// FileOutput writes reconstructed bytes directly into an *os.File at their
// destination offsets, avoiding buffering the whole file in memory.
type FileOutput struct {
	f *os.File
}

// NewFileOutput wraps f for positional writes.
func NewFileOutput(f *os.File) *FileOutput {
	return &FileOutput{f: f}
}

// WriteAt writes p at offset using the underlying file's WriteAt.
func (fo *FileOutput) WriteAt(p []byte, offset int64) (int, error) {
	n, err := fo.f.WriteAt(p, offset)
	if err != nil {
		return n, fmt.Errorf("xetcas: writing %d bytes at offset %d: %w", len(p), offset, err)
	}
	return n, nil
}
