package xorb

import (
	"io"
)

// readChunkSize is the size of the scratch buffer used to pull bytes
// from the underlying source per Read call; it bounds how much data the
// cursor ingests at once, not a xorb wire-format constant.
const readChunkSize = 32 * 1024

// StreamDecoder yields one decompressed chunk at a time from a xorb byte
// source, without knowing the total number of chunks or the xorb's total
// length up front. It is the primitive the preallocated batch decoder
// (DecodeBatch) is built on.
type StreamDecoder struct {
	r       io.Reader
	cur     cursor
	readBuf []byte
	eof     bool
}

// NewStreamDecoder wraps r, an ordered byte source for a single xorb
// (or a byte-range slice of one), for chunk-at-a-time decoding.
func NewStreamDecoder(r io.Reader) *StreamDecoder {
	return &StreamDecoder{r: r, readBuf: make([]byte, readChunkSize)}
}

// Next decodes and returns the next chunk's decompressed payload. It
// returns io.EOF once the source is exhausted cleanly between chunks; a
// source that ends mid-header or mid-payload instead reports
// ErrTruncatedStream.
func (d *StreamDecoder) Next() ([]byte, error) {
	for {
		avail := d.cur.available()
		if len(avail) >= headerSize {
			h, err := parseHeader(avail[:headerSize])
			if err != nil {
				return nil, err
			}
			need := headerSize + int(h.CompressedLength)
			if len(avail) >= need {
				payload, err := decodePayload(h, avail[headerSize:need])
				d.cur.consume(need)
				return payload, err
			}
		}
		if d.eof {
			if len(d.cur.available()) > 0 {
				return nil, ErrTruncatedStream
			}
			return nil, io.EOF
		}
		n, err := d.r.Read(d.readBuf)
		if n > 0 {
			d.cur.feed(d.readBuf[:n])
		}
		switch {
		case err == io.EOF:
			d.eof = true
		case err != nil:
			return nil, err
		}
	}
}
