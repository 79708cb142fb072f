package xetcas

import (
	"fmt"

	"github.com/xethub/xetcas/cas"
)

// FetchRangeKey identifies one HTTP GET's worth of xorb bytes: a specific
// chunk range within a specific xorb, served by a specific URL byte range.
// Two terms that resolve to the same FetchRangeKey can share one fetch.
type FetchRangeKey struct {
	Hash       string
	ChunkLo    int32
	ChunkHi    int32
	URLRangeLo uint64
	URLRangeHi uint64
}

// String renders the key for logging and map-free equality checks in tests.
func (k FetchRangeKey) String() string {
	return fmt.Sprintf("%s:%d-%d@%d-%d", k.Hash, k.ChunkLo, k.ChunkHi, k.URLRangeLo, k.URLRangeHi)
}

// fetchRangeKeyFor builds the stable key for the fetch-info that serves a
// term of the given hash.
func fetchRangeKeyFor(hash string, fi cas.FetchInfo) FetchRangeKey {
	return FetchRangeKey{
		Hash:       hash,
		ChunkLo:    fi.ChunkRange.Start,
		ChunkHi:    fi.ChunkRange.End,
		URLRangeLo: fi.URLRange.Start,
		URLRangeHi: fi.URLRange.End,
	}
}
