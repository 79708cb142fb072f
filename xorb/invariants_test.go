package xorb

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStreamAndBatchAgree exercises spec's universal invariant: streaming
// and preallocated-batch decode of the same xorb bytes must agree,
// chunk for chunk, across all three schemes.
func TestStreamAndBatchAgree(t *testing.T) {
	lz4Literal := []byte{0x50, 'h', 'e', 'l', 'l', 'o'} // "hello"
	bg4Literal := []byte{0x70, 0, 4, 1, 5, 2, 6, 3}     // grouped [0..6]

	var src []byte
	var want [][]byte
	src = append(src, schemeNoneChunk("first")...)
	want = append(want, []byte("first"))

	h := buildHeader(0, uint32(len(lz4Literal)), SchemeLZ4, 5)
	src = append(src, append(h, lz4Literal...)...)
	want = append(want, []byte("hello"))

	h = buildHeader(0, uint32(len(bg4Literal)), SchemeBG4LZ4, 7)
	src = append(src, append(h, bg4Literal...)...)
	want = append(want, []byte{0, 1, 2, 3, 4, 5, 6})

	src = append(src, schemeNoneChunk("")...)
	want = append(want, []byte{})

	// Streaming path.
	dec := NewStreamDecoder(bytes.NewReader(src))
	var streamed [][]byte
	for {
		payload, err := dec.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		streamed = append(streamed, payload)
	}
	require.Equal(t, want, streamed)

	// Preallocated-batch path.
	total := 0
	for _, w := range want {
		total += len(w)
	}
	batch, err := DecodeBatch(bytes.NewReader(src), total)
	require.NoError(t, err)
	for i, w := range want {
		require.Equal(t, w, batch.Range(i, i+1))
	}
}
