package xorb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeBatchMatchesStreamDecoder(t *testing.T) {
	var src []byte
	src = append(src, schemeNoneChunk("AAAAA")...)
	src = append(src, schemeNoneChunk("BBBBB")...)

	batch, err := DecodeBatch(bytes.NewReader(src), 10)
	require.NoError(t, err)
	require.Equal(t, "AAAAABBBBB", string(batch.Bytes))
	require.Equal(t, []int{0, 5, 10}, batch.ChunkByteIndices)
	require.Equal(t, "AAAAA", string(batch.Range(0, 1)))
	require.Equal(t, "BBBBB", string(batch.Range(1, 2)))
	require.Equal(t, "AAAAABBBBB", string(batch.Range(0, 2)))
}

func TestDecodeBatchZeroChunks(t *testing.T) {
	batch, err := DecodeBatch(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	require.Empty(t, batch.Bytes)
	require.Equal(t, []int{0}, batch.ChunkByteIndices)
}

func TestDecodeBatchTotalTooSmall(t *testing.T) {
	src := schemeNoneChunk("hello")
	_, err := DecodeBatch(bytes.NewReader(src), 3)
	var mismatch *ErrLengthMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestDecodeBatchTotalTooLarge(t *testing.T) {
	src := schemeNoneChunk("hello")
	_, err := DecodeBatch(bytes.NewReader(src), 10)
	var mismatch *ErrLengthMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestDecodeBatchPropagatesDecodeErrors(t *testing.T) {
	h := buildHeader(9, 0, SchemeNone, 0) // unsupported version
	_, err := DecodeBatch(bytes.NewReader(h), 0)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}
