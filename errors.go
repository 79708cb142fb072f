package xetcas

import (
	"errors"
	"fmt"
)

// Protocol errors: the remote end answered, but its answer was invalid.
var (
	// ErrMalformedPlan indicates a reconstruction plan could not be
	// parsed or failed its internal consistency checks.
	ErrMalformedPlan = errors.New("xetcas: malformed reconstruction plan")
	// ErrMalformedTokenResponse indicates a token refresh response could
	// not be parsed.
	ErrMalformedTokenResponse = errors.New("xetcas: malformed token response")
	// ErrXorbDecodeFailed indicates a fetched xorb's bytes could not be
	// decoded into chunks, or a chunk's length was inconsistent.
	ErrXorbDecodeFailed = errors.New("xetcas: xorb decode failed")
)

// Transport errors: the round trip itself did not complete as expected.
var (
	// ErrTokenRefreshFailed wraps a non-2xx token refresh response.
	ErrTokenRefreshFailed = errors.New("xetcas: token refresh failed")
	// ErrReconstructionFailed wraps a non-2xx reconstruction response.
	ErrReconstructionFailed = errors.New("xetcas: reconstruction request failed")
	// ErrFetchFailed wraps a non-200/206 xorb fetch response.
	ErrFetchFailed = errors.New("xetcas: xorb fetch failed")
)

// ErrInvalidFileID indicates a caller-supplied file ID was not a 64-hex
// Merkle hash.
type ErrInvalidFileID struct {
	FileID string
}

func (e *ErrInvalidFileID) Error() string {
	return fmt.Sprintf("xetcas: invalid file id %q", truncate(e.FileID, 20))
}

func (e *ErrInvalidFileID) Is(target error) bool {
	_, ok := target.(*ErrInvalidFileID)
	return ok
}

// ErrInvalidByteRange indicates a requested byte range was malformed
// (start > end). Ranges are not checked against the file's size.
type ErrInvalidByteRange struct {
	Start, End uint64
	Reason     string
}

func (e *ErrInvalidByteRange) Error() string {
	return fmt.Sprintf("xetcas: invalid byte range [%d,%d): %s", e.Start, e.End, e.Reason)
}

func (e *ErrInvalidByteRange) Is(target error) bool {
	_, ok := target.(*ErrInvalidByteRange)
	return ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
