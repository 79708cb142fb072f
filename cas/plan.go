// Package cas builds and decodes reconstruction-plan requests against the
// CAS HTTP API: given a file ID and optional byte range, it returns the
// ordered terms and fetch-infos a downloader needs to reassemble the file.
package cas

// ChunkRange is a half-open interval of chunk indices within a xorb.
// Chunk indices use a signed 32-bit range to match the wire format.
type ChunkRange struct {
	Start int32
	End   int32
}

// Len returns the number of chunks the range spans.
func (r ChunkRange) Len() int32 { return r.End - r.Start }

// Contains reports whether r fully contains other.
func (r ChunkRange) Contains(other ChunkRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// ByteRange is a byte interval. As the url_range field of a fetch-info it
// is inclusive on both ends, as in HTTP Range headers; as the requested
// range passed to GetReconstruction (and the downloader) it is half-open,
// [Start, End).
type ByteRange struct {
	Start uint64
	End   uint64
}

// Term names a contiguous chunk-index range within one xorb that
// contributes bytes to a file's reconstruction.
type Term struct {
	Hash           string
	UnpackedLength uint32
	Range          ChunkRange
}

// Empty reports whether the term contributes zero chunks.
func (t Term) Empty() bool { return t.Range.Len() == 0 }

// FetchInfo is a presigned HTTP GET covering one or more chunks of a xorb.
type FetchInfo struct {
	URL        string
	ChunkRange ChunkRange
	URLRange   ByteRange
}

// Plan is the immutable reconstruction plan for a file (or a byte-range
// slice of one): the ordered terms to splice together, plus the
// fetch-infos needed to retrieve each xorb's bytes.
type Plan struct {
	OffsetIntoFirstRange uint64
	Terms                []Term
	FetchInfo            map[string][]FetchInfo
}

// FetchInfoFor returns the first fetch-info for term's hash whose chunk
// range fully contains the term's range, per the "first fetch-info that
// covers the term" rule. The second return value is false if the plan
// has no fetch-info entry for the hash at all, or none of them cover it
// (a malformed plan).
func (p *Plan) FetchInfoFor(t Term) (FetchInfo, bool) {
	for _, fi := range p.FetchInfo[t.Hash] {
		if fi.ChunkRange.Contains(t.Range) {
			return fi, true
		}
	}
	return FetchInfo{}, false
}

// XorbUsageCounts returns, for every xorb hash referenced by the plan's
// terms, how many terms reference it. A count greater than 1 makes that
// xorb's fetched bytes worth caching for the duration of the download.
func (p *Plan) XorbUsageCounts() map[string]int {
	counts := make(map[string]int, len(p.Terms))
	for _, t := range p.Terms {
		counts[t.Hash]++
	}
	return counts
}
