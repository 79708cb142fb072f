package xetcas

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/xethub/xetcas/cas"
	"github.com/xethub/xetcas/internal/xxfp"
)

// scheduler runs the execution loop described in the downloader contract:
// for each term in plan order, ensure its xorb is fetched (prefetching
// ahead up to the fetch concurrency limit), then splice its contribution
// into the output.
type scheduler struct {
	d    *Downloader
	plan *cas.Plan
	out  Output

	fetchSem *semaphore.Weighted
	bufSem   *semaphore.Weighted

	inflight map[FetchRangeKey]*fetchFuture
	cache    map[FetchRangeKey]*fetchedXorb
	usage    map[string]int

	skip      uint64
	remaining int64
	bounded   bool
	written   int64

	log zerolog.Logger
}

func (s *scheduler) run(ctx context.Context) (int64, error) {
	unpackedTotals := s.keyUnpackedTotals()

	for i, term := range s.plan.Terms {
		if s.bounded && s.remaining == 0 {
			break
		}
		if term.Empty() {
			continue
		}

		fi, ok := s.plan.FetchInfoFor(term)
		if !ok {
			return s.written, fmt.Errorf("%w: no fetch_info covers term %s[%d,%d)", ErrMalformedPlan, term.Hash, term.Range.Start, term.Range.End)
		}
		key := fetchRangeKeyFor(term.Hash, fi)
		tag := xxfp.FetchRangeTag(key.Hash, key.ChunkLo, key.ChunkHi, key.URLRangeLo, key.URLRangeHi)

		fx, ok := s.cache[key]
		if ok {
			s.d.metrics.cacheHits.Inc()
			s.log.Debug().Str("fetch_key", tag).Msg("cache hit")
		} else {
			s.ensurePrefetch(ctx, i, unpackedTotals)
			fut, exists := s.inflight[key]
			if !exists {
				fut = s.launchFetch(ctx, key, fi, unpackedTotals[key])
			}
			var err error
			fx, err = fut.wait(ctx)
			delete(s.inflight, key)
			if err != nil {
				return s.written, err
			}
			if s.usage[term.Hash] > 1 {
				s.cache[key] = fx
			}
		}

		if err := s.splice(term, fx); err != nil {
			return s.written, err
		}
	}

	return s.written, nil
}

// keyUnpackedTotals sums unpacked_length across every term sharing a
// FetchRangeKey, since a single fetch may be decoded once and split across
// several terms.
func (s *scheduler) keyUnpackedTotals() map[FetchRangeKey]int {
	totals := make(map[FetchRangeKey]int)
	for _, term := range s.plan.Terms {
		if term.Empty() {
			continue
		}
		fi, ok := s.plan.FetchInfoFor(term)
		if !ok {
			continue
		}
		key := fetchRangeKeyFor(term.Hash, fi)
		totals[key] += int(term.UnpackedLength)
	}
	return totals
}

// ensurePrefetch launches fetches for up to max_concurrent_fetches terms
// starting at idx (inclusive of the current term), skipping keys that are
// already cached or already in flight.
func (s *scheduler) ensurePrefetch(ctx context.Context, idx int, totals map[FetchRangeKey]int) {
	limit := s.d.cfg.MaxConcurrentFetches
	for j := idx; j < len(s.plan.Terms) && j < idx+limit; j++ {
		term := s.plan.Terms[j]
		if term.Empty() {
			continue
		}
		fi, ok := s.plan.FetchInfoFor(term)
		if !ok {
			continue
		}
		key := fetchRangeKeyFor(term.Hash, fi)
		if _, cached := s.cache[key]; cached {
			continue
		}
		if _, launched := s.inflight[key]; launched {
			continue
		}
		s.launchFetch(ctx, key, fi, totals[key])
	}
}

func (s *scheduler) launchFetch(ctx context.Context, key FetchRangeKey, fi cas.FetchInfo, unpackedTotal int) *fetchFuture {
	fut := newFetchFuture()
	s.inflight[key] = fut
	tag := xxfp.FetchRangeTag(key.Hash, key.ChunkLo, key.ChunkHi, key.URLRangeLo, key.URLRangeHi)

	go func() {
		if err := s.fetchSem.Acquire(ctx, 1); err != nil {
			fut.resolve(nil, err)
			return
		}
		defer s.fetchSem.Release(1)

		s.log.Debug().Str("fetch_key", tag).Str("url", fi.URL).Msg("fetch start")
		fx, err := s.d.fetchXorb(ctx, fi, unpackedTotal, s.bufSem)
		if err != nil {
			s.log.Debug().Str("fetch_key", tag).Err(err).Msg("fetch failed")
		} else {
			s.log.Debug().Str("fetch_key", tag).Int("bytes", len(fx.batch.Bytes)).Msg("fetch finished")
		}
		fut.resolve(fx, err)
	}()

	return fut
}

// splice writes term's contribution to the output, honoring the
// offset-into-first-range skip and the remaining byte budget.
func (s *scheduler) splice(term cas.Term, fx *fetchedXorb) error {
	slice := fx.slice(term.Range.Start, term.Range.End)

	if s.skip > 0 {
		drop := s.skip
		if drop > uint64(len(slice)) {
			drop = uint64(len(slice))
		}
		slice = slice[drop:]
		s.skip -= drop
		if len(slice) == 0 {
			return nil
		}
	}

	if s.bounded && int64(len(slice)) > s.remaining {
		slice = slice[:s.remaining]
	}

	n, err := s.out.WriteAt(slice, s.written)
	if err != nil {
		return fmt.Errorf("xetcas: writing output: %w", err)
	}
	s.written += int64(n)
	if s.bounded {
		s.remaining -= int64(n)
	}
	return nil
}

// cancelInflight drains any futures still outstanding after a failed run,
// so their goroutines do not leak past DownloadTo's return.
func (s *scheduler) cancelInflight() {
	for _, fut := range s.inflight {
		go func(f *fetchFuture) {
			<-f.done
		}(fut)
	}
}
