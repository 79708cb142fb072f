package xorb

import (
	"github.com/xethub/xetcas/bg4"
	"github.com/xethub/xetcas/lz4block"
)

// decodePayload decompresses a single chunk's payload according to its
// header's scheme, returning exactly UncompressedLength bytes on success.
func decodePayload(h ChunkHeader, payload []byte) ([]byte, error) {
	switch h.Scheme {
	case SchemeNone:
		if h.CompressedLength != h.UncompressedLength {
			return nil, &ErrLengthMismatch{
				Context:  "scheme-0 chunk",
				Expected: int(h.UncompressedLength),
				Actual:   int(h.CompressedLength),
			}
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil

	case SchemeLZ4:
		out, err := lz4block.DecodeExact(payload, int(h.UncompressedLength))
		if err != nil {
			return nil, err
		}
		return out, nil

	case SchemeBG4LZ4:
		grouped, err := lz4block.DecodeExact(payload, int(h.UncompressedLength))
		if err != nil {
			return nil, err
		}
		return bg4.Regroup(grouped), nil

	default:
		return nil, ErrUnsupportedScheme
	}
}
