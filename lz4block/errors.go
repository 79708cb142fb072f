// Package lz4block implements the raw-block LZ4 dialect used inside xorb
// chunks, plus a standard-frame reader kept around for interoperability
// testing against reference encoders.
package lz4block

import (
	"errors"
	"fmt"
)

// ErrTruncated indicates the source ended before a complete sequence,
// match offset, or match length could be read.
var ErrTruncated = errors.New("lz4block: truncated input")

// ErrInvalidOffset indicates a match offset of zero, or one that points
// before the start of the output written so far.
var ErrInvalidOffset = errors.New("lz4block: invalid match offset")

// ErrOutputOverflow indicates the block would write more bytes than the
// caller-sized output buffer holds.
var ErrOutputOverflow = errors.New("lz4block: output overflow")

// ErrShortOutput indicates the block decoded to fewer bytes than the
// caller expected.
type ErrShortOutput struct {
	Want int
	Got  int
}

func (e *ErrShortOutput) Error() string {
	return fmt.Sprintf("lz4block: decoded %d bytes, expected %d", e.Got, e.Want)
}

func (e *ErrShortOutput) Is(target error) bool {
	_, ok := target.(*ErrShortOutput)
	return ok
}

// ErrBadMagic indicates a standard frame did not begin with the LZ4 frame
// magic number.
var ErrBadMagic = errors.New("lz4block: not an lz4 frame")

// ErrUnsupportedVersion indicates a frame descriptor's version bits were
// not the one standard LZ4 frames use.
var ErrUnsupportedVersion = errors.New("lz4block: unsupported frame version")
