package bg4

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripAllLengths(t *testing.T) {
	const maxN = 300 // covers every rem (0-3) well past the SIMD threshold
	data := make([]byte, maxN)
	for i := range data {
		data[i] = byte(i * 7)
	}
	for n := 0; n <= maxN; n++ {
		d := data[:n]
		grouped := Split(d)
		require.Len(t, grouped, n)
		got := Regroup(grouped)
		require.Equalf(t, d, got, "round trip mismatch at n=%d", n)
	}
}

func TestSpecExampleSevenBytes(t *testing.T) {
	grouped := []byte{0, 4, 1, 5, 2, 6, 3}
	want := []byte{0, 1, 2, 3, 4, 5, 6}
	require.Equal(t, want, Regroup(grouped))
}

func TestRegroupScalarMatchesFastPath(t *testing.T) {
	// Build input just above and just below the fast-path threshold and
	// confirm both produce the formula-derived result.
	for _, n := range []int{regroupFastThreshold - 1, regroupFastThreshold, regroupFastThreshold + 3} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}
		grouped := Split(data)
		require.Equal(t, data, Regroup(grouped))
	}
}

func TestSegmentSizes(t *testing.T) {
	cases := []struct {
		n    int
		want [4]int
	}{
		{0, [4]int{0, 0, 0, 0}},
		{1, [4]int{1, 0, 0, 0}},
		{2, [4]int{1, 1, 0, 0}},
		{3, [4]int{1, 1, 1, 0}},
		{4, [4]int{1, 1, 1, 1}},
		{7, [4]int{2, 2, 2, 1}},
	}
	for _, c := range cases {
		require.Equal(t, c.want, segmentSizes(c.n), "n=%d", c.n)
	}
}
