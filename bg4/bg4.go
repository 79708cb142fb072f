// Package bg4 implements the byte-grouping-of-4 transform: a 4-way byte
// deinterleave applied before LZ4 compression to improve the
// compressibility of structured (e.g. columnar/numeric) data. Regroup is
// its inverse, and is the only direction xorb decoding needs.
package bg4

// segmentSizes returns the length of each of the four segments a
// grouped buffer of n bytes is split into: split = n/4, with the
// remainder distributed to the first `rem` segments in order.
func segmentSizes(n int) [4]int {
	split := n / 4
	rem := n % 4
	sizes := [4]int{split, split, split, split}
	for i := 0; i < rem; i++ {
		sizes[i]++
	}
	return sizes
}

// regroupFastThreshold is the size at or above which Regroup walks all four
// segments in lockstep, four output bytes at a time, instead of
// computing `i%4`/`i/4` per byte. It must produce byte-identical output
// to the scalar loop for every n, including n below the threshold.
const regroupFastThreshold = 256

// Regroup reverses the 4-way byte deinterleave: given n bytes produced by
// Split, it reconstructs the original n-byte sequence. Output position i
// is read from segment (i mod 4) at offset (i div 4) within that
// segment, matching segments laid out back-to-back in grouped.
func Regroup(grouped []byte) []byte {
	n := len(grouped)
	out := make([]byte, n)
	sizes := segmentSizes(n)
	starts := [4]int{0, sizes[0], sizes[0] + sizes[1], sizes[0] + sizes[1] + sizes[2]}

	if n >= regroupFastThreshold {
		regroupPlanar(out, grouped, starts, sizes[3])
		return out
	}
	for i := 0; i < n; i++ {
		seg := i % 4
		out[i] = grouped[starts[seg]+i/4]
	}
	return out
}

// regroupPlanar walks the four input segments in lockstep, writing one
// byte from each into four consecutive output positions per iteration.
// full is the number of complete 4-byte groups (the length of the
// shortest segment, segment 3); any remaining 1-3 bytes at the tail
// (present whenever n%4 != 0) are handled with the scalar formula.
func regroupPlanar(out, grouped []byte, starts [4]int, full int) {
	s0, s1, s2, s3 := starts[0], starts[1], starts[2], starts[3]
	for j := 0; j < full; j++ {
		o := j * 4
		out[o] = grouped[s0+j]
		out[o+1] = grouped[s1+j]
		out[o+2] = grouped[s2+j]
		out[o+3] = grouped[s3+j]
	}
	for i := full * 4; i < len(out); i++ {
		seg := i % 4
		out[i] = grouped[starts[seg]+i/4]
	}
}

// Split performs the forward 4-way deinterleave. It is not needed by the
// decode-only download engine (spec Non-goals exclude encoding) but is
// kept alongside Regroup so that round-trip tests can exercise both
// directions without reimplementing the transform twice.
func Split(data []byte) []byte {
	n := len(data)
	out := make([]byte, n)
	sizes := segmentSizes(n)
	starts := [4]int{0, sizes[0], sizes[0] + sizes[1], sizes[0] + sizes[1] + sizes[2]}

	for i := 0; i < n; i++ {
		seg := i % 4
		out[starts[seg]+i/4] = data[i]
	}
	return out
}
