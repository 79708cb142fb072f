// Package xxfp computes short, stable fingerprints for log correlation.
// FetchRangeKey and xorb hashes are already content-addressed, but they are
// long and noisy in log lines; xxfp reduces them to a compact hex tag.
package xxfp

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Tag returns a fingerprint of the given parts, joined by a NUL separator
// not expected to appear in any part: the low 32 bits of their xxhash in
// lowercase hex, at most 8 characters and without leading zeros.
func Tag(parts ...string) string {
	sum := xxhash.Sum64String(strings.Join(parts, "\x00"))
	return strconv.FormatUint(sum&0xFFFFFFFF, 16)
}

// FetchRangeTag fingerprints a FetchRangeKey's components for log lines,
// without pulling the cas package into an internal helper.
func FetchRangeTag(hash string, chunkLo, chunkHi int32, urlLo, urlHi uint64) string {
	return Tag(
		hash,
		strconv.FormatInt(int64(chunkLo), 10),
		strconv.FormatInt(int64(chunkHi), 10),
		strconv.FormatUint(urlLo, 10),
		strconv.FormatUint(urlHi, 10),
	)
}
