package xorb

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamDecoderSchemeZeroSingleChunk(t *testing.T) {
	// Header 00 05 00 00 00 05 00 00 + payload "hello" -> "hello".
	src := schemeNoneChunk("hello")
	dec := NewStreamDecoder(bytes.NewReader(src))
	payload, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, "hello", string(payload))

	_, err = dec.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamDecoderSchemeOneLiteralLZ4(t *testing.T) {
	compressed := []byte{0x50, 'h', 'e', 'l', 'l', 'o'}
	h := buildHeader(0, uint32(len(compressed)), SchemeLZ4, 5)
	src := append(h, compressed...)

	dec := NewStreamDecoder(bytes.NewReader(src))
	payload, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, "hello", string(payload))
}

func TestStreamDecoderSchemeTwoBG4LZ4(t *testing.T) {
	// Grouped form of [0..6] is [0,4,1,5,2,6,3]; token 0x70 (litLen=7) wraps it.
	compressed := []byte{0x70, 0, 4, 1, 5, 2, 6, 3}
	h := buildHeader(0, uint32(len(compressed)), SchemeBG4LZ4, 7)
	src := append(h, compressed...)

	dec := NewStreamDecoder(bytes.NewReader(src))
	payload, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6}, payload)
}

func TestStreamDecoderMultiChunk(t *testing.T) {
	var src []byte
	src = append(src, schemeNoneChunk("hello")...)
	src = append(src, schemeNoneChunk("world")...)

	dec := NewStreamDecoder(bytes.NewReader(src))
	first, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, "hello", string(first))

	second, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, "world", string(second))

	_, err = dec.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamDecoderTruncatedPayload(t *testing.T) {
	h := buildHeader(0, 5, SchemeNone, 5)
	src := append(h, "hel"...) // short by two bytes
	dec := NewStreamDecoder(bytes.NewReader(src))
	_, err := dec.Next()
	require.ErrorIs(t, err, ErrTruncatedStream)
}

func TestStreamDecoderTruncatedHeader(t *testing.T) {
	dec := NewStreamDecoder(bytes.NewReader([]byte{0, 1, 2}))
	_, err := dec.Next()
	require.ErrorIs(t, err, ErrTruncatedStream)
}

func TestStreamDecoderUnsupportedVersion(t *testing.T) {
	h := buildHeader(1, 0, SchemeNone, 0)
	dec := NewStreamDecoder(bytes.NewReader(h))
	_, err := dec.Next()
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestStreamDecoderSchemeZeroLengthMismatch(t *testing.T) {
	h := buildHeader(0, 5, SchemeNone, 4)
	src := append(h, "hello"...)
	dec := NewStreamDecoder(bytes.NewReader(src))
	_, err := dec.Next()
	var mismatch *ErrLengthMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestStreamDecoderEmptyChunkRoundTrips(t *testing.T) {
	h := buildHeader(0, 0, SchemeNone, 0)
	dec := NewStreamDecoder(bytes.NewReader(h))
	payload, err := dec.Next()
	require.NoError(t, err)
	require.Empty(t, payload)
}

func TestStreamDecoderMaxChunkSize(t *testing.T) {
	const maxSize = 1<<24 - 1
	payload := make([]byte, maxSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	h := buildHeader(0, maxSize, SchemeNone, maxSize)
	src := append(h, payload...)

	dec := NewStreamDecoder(bytes.NewReader(src))
	got, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

// fragmentedReader trickles bytes through in small reads, exercising the
// cursor's feed/compact path against a realistic streaming source.
type fragmentedReader struct {
	data []byte
	pos  int
	step int
}

func (f *fragmentedReader) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, io.EOF
	}
	n := f.step
	if n > len(p) {
		n = len(p)
	}
	if f.pos+n > len(f.data) {
		n = len(f.data) - f.pos
	}
	copy(p, f.data[f.pos:f.pos+n])
	f.pos += n
	return n, nil
}

func TestStreamDecoderFragmentedSource(t *testing.T) {
	var src []byte
	for i := 0; i < 50; i++ {
		src = append(src, schemeNoneChunk("chunk-data-here")...)
	}
	dec := NewStreamDecoder(&fragmentedReader{data: src, step: 3})
	count := 0
	for {
		payload, err := dec.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, "chunk-data-here", string(payload))
		count++
	}
	require.Equal(t, 50, count)
}
