package xorb

import "io"

// Batch is the preallocated decode of an entire xorb (or byte-range
// slice of one): every chunk's decompressed payload, written
// contiguously into a single allocation, plus an index mapping chunk
// number to byte offset. This is what the downloader's scheduler
// splices terms out of without any further per-chunk copy.
type Batch struct {
	// Bytes holds every chunk's decompressed payload back to back.
	Bytes []byte
	// ChunkByteIndices has length len(chunks)+1; ChunkByteIndices[i] is
	// the offset of chunk i's first byte, and the final entry is
	// len(Bytes) (== the caller-supplied total).
	ChunkByteIndices []int
}

// Range returns the byte slice of Bytes spanning [lo, hi) chunk indices.
func (b *Batch) Range(lo, hi int) []byte {
	return b.Bytes[b.ChunkByteIndices[lo]:b.ChunkByteIndices[hi]]
}

// DecodeBatch streams r to completion, decoding every chunk into a
// single total-byte allocation. total must equal the sum of every
// chunk's uncompressed length; a mismatch in either direction is
// reported as ErrLengthMismatch rather than silently truncating or
// leaving the tail of Bytes zeroed.
func DecodeBatch(r io.Reader, total int) (*Batch, error) {
	dec := NewStreamDecoder(r)
	out := make([]byte, total)
	indices := make([]int, 1, 8)
	offset := 0

	for {
		payload, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if offset+len(payload) > total {
			return nil, &ErrLengthMismatch{Context: "batch total", Expected: total, Actual: offset + len(payload)}
		}
		copy(out[offset:offset+len(payload)], payload)
		offset += len(payload)
		indices = append(indices, offset)
	}

	if offset != total {
		return nil, &ErrLengthMismatch{Context: "batch total", Expected: total, Actual: offset}
	}
	return &Batch{Bytes: out, ChunkByteIndices: indices}, nil
}
