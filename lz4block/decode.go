package lz4block

// Decode decompresses a raw LZ4 block from src into output, returning the
// number of bytes written. output must be sized to the expected
// decompressed length; writing past the end of it is reported as
// ErrOutputOverflow rather than panicking on a slice-bounds fault.
//
// The block is a sequence of sequences. Each sequence is a token byte
// (high nibble: literal length, low nibble: match length), an optional
// extended literal length, the literals themselves, a 2-byte
// little-endian match offset, an optional extended match length, and the
// match copy. The final sequence of a block has no match: the literals
// run to the end of src.
func Decode(src []byte, output []byte) (int, error) {
	var si, di int
	for si < len(src) {
		if si >= len(src) {
			return di, ErrTruncated
		}
		token := src[si]
		si++

		litLen := int(token >> 4)
		if litLen == 15 {
			n, newSi, err := readExtendedLength(src, si)
			if err != nil {
				return di, err
			}
			litLen += n
			si = newSi
		}

		if litLen > 0 {
			if si+litLen > len(src) {
				return di, ErrTruncated
			}
			if di+litLen > len(output) {
				return di, ErrOutputOverflow
			}
			copy(output[di:di+litLen], src[si:si+litLen])
			si += litLen
			di += litLen
		}

		if si >= len(src) {
			// Final sequence: literals only, block ends here.
			break
		}

		if si+2 > len(src) {
			return di, ErrTruncated
		}
		offset := int(src[si]) | int(src[si+1])<<8
		si += 2
		if offset == 0 || offset > di {
			return di, ErrInvalidOffset
		}

		matchLen := int(token & 0x0F)
		if matchLen == 15 {
			n, newSi, err := readExtendedLength(src, si)
			if err != nil {
				return di, err
			}
			matchLen += n
			si = newSi
		}
		matchLen += 4

		if di+matchLen > len(output) {
			return di, ErrOutputOverflow
		}
		from := di - offset
		for i := 0; i < matchLen; i++ {
			output[di+i] = output[from+i]
		}
		di += matchLen
	}
	return di, nil
}

// DecodeExact decompresses src into an output buffer sized to exactly
// want bytes, and fails if the block decodes to any other length. This
// is the shape xorb chunk decoding needs: the wire format names an exact
// uncompressed_length up front.
func DecodeExact(src []byte, want int) ([]byte, error) {
	output := make([]byte, want)
	n, err := Decode(src, output)
	if err != nil {
		return nil, err
	}
	if n != want {
		return nil, &ErrShortOutput{Want: want, Got: n}
	}
	return output, nil
}

// readExtendedLength reads the variable-length extension used when a
// 4-bit length field reads 15: additional bytes are added to the total
// until one is read that is less than 255.
func readExtendedLength(src []byte, si int) (n int, newSi int, err error) {
	for {
		if si >= len(src) {
			return 0, 0, ErrTruncated
		}
		b := src[si]
		si++
		n += int(b)
		if b != 255 {
			return n, si, nil
		}
	}
}
