package lz4block

import (
	"encoding/binary"
	"fmt"
)

var frameMagic = [4]byte{0x04, 0x22, 0x4D, 0x18}

const (
	flgContentChecksum = 1 << 2
	flgContentSize     = 1 << 3
	flgBlockChecksum   = 1 << 4
	flgVersionMask     = 0xC0
	flgVersionWant     = 0x40
	flgDictID          = 1 << 0

	bdUncompressedMask uint32 = 1 << 31
)

// BlockMaxSize reports the maximum decompressed size of any single block
// for a BD byte's size-descriptor bits, as named in the LZ4 frame format.
func BlockMaxSize(bd byte) (int, error) {
	switch (bd >> 4) & 0x07 {
	case 4:
		return 64 * 1024, nil
	case 5:
		return 256 * 1024, nil
	case 6:
		return 1024 * 1024, nil
	case 7:
		return 4 * 1024 * 1024, nil
	default:
		return 0, fmt.Errorf("lz4block: unsupported block size descriptor 0x%02x", bd)
	}
}

// HasFrameMagic reports whether src begins with the standard LZ4 frame
// magic number.
func HasFrameMagic(src []byte) bool {
	return len(src) >= 4 &&
		src[0] == frameMagic[0] && src[1] == frameMagic[1] &&
		src[2] == frameMagic[2] && src[3] == frameMagic[3]
}

// DecodeFrame decompresses a standard LZ4 frame (magic + descriptor +
// blocks) and returns the concatenated decompressed bytes. It exists for
// interoperability tests against reference encoders; xorbs never embed
// standard frames, only raw blocks (Decode).
//
// Block and content checksums are read, when flagged, and discarded
// without verification.
func DecodeFrame(src []byte) ([]byte, error) {
	if !HasFrameMagic(src) {
		return nil, ErrBadMagic
	}
	pos := 4
	if pos >= len(src) {
		return nil, ErrTruncated
	}
	flg := src[pos]
	pos++
	if flg&flgVersionMask != flgVersionWant {
		return nil, ErrUnsupportedVersion
	}
	if pos >= len(src) {
		return nil, ErrTruncated
	}
	bd := src[pos]
	pos++
	maxBlockSize, err := BlockMaxSize(bd)
	if err != nil {
		return nil, err
	}

	if flg&flgContentSize != 0 {
		if pos+8 > len(src) {
			return nil, ErrTruncated
		}
		pos += 8
	}
	if flg&flgDictID != 0 {
		if pos+4 > len(src) {
			return nil, ErrTruncated
		}
		pos += 4
	}
	// Header checksum byte: present, not validated.
	if pos >= len(src) {
		return nil, ErrTruncated
	}
	pos++

	var out []byte
	for {
		if pos+4 > len(src) {
			return nil, ErrTruncated
		}
		rawSize := binary.LittleEndian.Uint32(src[pos:])
		pos += 4
		if rawSize == 0 {
			break
		}
		uncompressedFlag := rawSize&bdUncompressedMask != 0
		blockSize := int(rawSize &^ bdUncompressedMask)
		if blockSize > maxBlockSize {
			return nil, fmt.Errorf("lz4block: block of %d bytes exceeds max size %d", blockSize, maxBlockSize)
		}
		if pos+blockSize > len(src) {
			return nil, ErrTruncated
		}
		block := src[pos : pos+blockSize]
		pos += blockSize

		if flg&flgBlockChecksum != 0 {
			if pos+4 > len(src) {
				return nil, ErrTruncated
			}
			pos += 4 // block checksum, discarded
		}

		if uncompressedFlag {
			out = append(out, block...)
			continue
		}
		decoded := make([]byte, maxBlockSize)
		n, err := Decode(block, decoded)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded[:n]...)
	}

	if flg&flgContentChecksum != 0 {
		if pos+4 > len(src) {
			return nil, ErrTruncated
		}
		pos += 4 // content checksum, discarded
	}

	return out, nil
}
