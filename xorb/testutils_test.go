package xorb

// buildHeader constructs an 8-byte chunk header for test fixtures.
func buildHeader(version byte, compressedLen uint32, scheme Scheme, uncompressedLen uint32) []byte {
	buf := make([]byte, headerSize)
	buf[0] = version
	put24(buf[1:4], compressedLen)
	buf[4] = byte(scheme)
	put24(buf[5:8], uncompressedLen)
	return buf
}

func put24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func schemeNoneChunk(payload string) []byte {
	h := buildHeader(0, uint32(len(payload)), SchemeNone, uint32(len(payload)))
	return append(h, payload...)
}
