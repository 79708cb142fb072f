package cas

import "fmt"

// wireRange mirrors the { "start": ..., "end": ... } shape used for both
// chunk_range and url_range in the reconstruction response.
type wireRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type wireTerm struct {
	Hash           string    `json:"hash"`
	UnpackedLength uint32    `json:"unpacked_length"`
	Range          wireRange `json:"range"`
}

type wireFetchInfo struct {
	URL        string    `json:"url"`
	ChunkRange wireRange `json:"range"`
	URLRange   wireRange `json:"url_range"`
}

type wireReconstruction struct {
	OffsetIntoFirstRange uint64                     `json:"offset_into_first_range"`
	Terms                []wireTerm                 `json:"terms"`
	FetchInfo            map[string][]wireFetchInfo `json:"fetch_info"`
}

func (w *wireReconstruction) toPlan() (*Plan, error) {
	plan := &Plan{
		OffsetIntoFirstRange: w.OffsetIntoFirstRange,
		Terms:                make([]Term, 0, len(w.Terms)),
		FetchInfo:            make(map[string][]FetchInfo, len(w.FetchInfo)),
	}

	for _, t := range w.Terms {
		if len(t.Hash) != 64 {
			return nil, fmt.Errorf("%w: term hash %q is not 64 hex characters", ErrMalformedPlan, t.Hash)
		}
		if t.Range.Start > t.Range.End {
			return nil, fmt.Errorf("%w: term range [%d,%d) has start > end", ErrMalformedPlan, t.Range.Start, t.Range.End)
		}
		plan.Terms = append(plan.Terms, Term{
			Hash:           t.Hash,
			UnpackedLength: t.UnpackedLength,
			Range:          ChunkRange{Start: int32(t.Range.Start), End: int32(t.Range.End)},
		})
	}

	for hash, infos := range w.FetchInfo {
		converted := make([]FetchInfo, 0, len(infos))
		for _, fi := range infos {
			if fi.ChunkRange.Start > fi.ChunkRange.End {
				return nil, fmt.Errorf("%w: fetch_info chunk range [%d,%d) has start > end", ErrMalformedPlan, fi.ChunkRange.Start, fi.ChunkRange.End)
			}
			if fi.URLRange.Start > fi.URLRange.End {
				return nil, fmt.Errorf("%w: fetch_info url_range [%d,%d] has start > end", ErrMalformedPlan, fi.URLRange.Start, fi.URLRange.End)
			}
			converted = append(converted, FetchInfo{
				URL:        fi.URL,
				ChunkRange: ChunkRange{Start: int32(fi.ChunkRange.Start), End: int32(fi.ChunkRange.End)},
				URLRange:   ByteRange{Start: uint64(fi.URLRange.Start), End: uint64(fi.URLRange.End)},
			})
		}
		plan.FetchInfo[hash] = converted
	}

	for _, t := range plan.Terms {
		if t.Empty() {
			continue
		}
		if _, ok := plan.FetchInfoFor(t); !ok {
			return nil, fmt.Errorf("%w: no fetch_info for term %s covers range [%d,%d)", ErrMalformedPlan, t.Hash, t.Range.Start, t.Range.End)
		}
	}

	return plan, nil
}
