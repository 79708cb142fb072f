package xetcas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/xethub/xetcas/cas"
	"github.com/xethub/xetcas/token"
	"github.com/xethub/xetcas/xorb"
)

// Downloader reconstructs files from a CAS deployment: it resolves
// credentials via a token provider, requests a reconstruction plan, fetches
// and decodes the xorbs the plan names, and splices their bytes into an
// Output in plan order.
type Downloader struct {
	refreshURL string
	hubToken   string

	cfg     *Config
	tokens  *token.Provider
	casCli  *cas.Client
	clients *clientPool
	metrics *Metrics
	log     zerolog.Logger
}

// NewDownloader builds a Downloader that authenticates against refreshURL
// using hubToken, applying any supplied Options over NewConfig's defaults.
func NewDownloader(refreshURL, hubToken string, opts ...Option) (*Downloader, error) {
	cfg, err := NewConfig()
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	clients := newClientPool(cfg)
	metrics := NewMetrics()
	return &Downloader{
		refreshURL: refreshURL,
		hubToken:   hubToken,
		cfg:        cfg,
		tokens: token.NewProvider(
			token.WithHTTPClient(clients.get()),
			token.WithSafetyWindow(cfg.SafetyWindow),
			token.WithOnRefresh(metrics.tokenRefresh.Inc),
		),
		casCli:  cas.NewClient(clients.get()),
		clients: clients,
		metrics: metrics,
		log:     zerolog.Nop(),
	}, nil
}

// WithLogger attaches a logger to an already-constructed Downloader,
// including the token provider it already holds, and returns it for
// chaining.
func (d *Downloader) WithLogger(l zerolog.Logger) *Downloader {
	d.log = l
	d.tokens.SetLogger(l)
	return d
}

// WithMetrics attaches a Metrics instance to an already-constructed
// Downloader, rewiring the token provider's refresh counter to it, and
// returns it for chaining.
func (d *Downloader) WithMetrics(m *Metrics) *Downloader {
	if m == nil {
		m = NewMetrics()
	}
	d.metrics = m
	d.tokens.SetOnRefresh(m.tokenRefresh.Inc)
	return d
}

// Download reconstructs fileID (optionally scoped to byteRange) and returns
// its bytes.
func (d *Downloader) Download(ctx context.Context, fileID string, byteRange *cas.ByteRange) ([]byte, error) {
	out := NewMemoryOutput(0)
	if _, err := d.DownloadTo(ctx, fileID, byteRange, out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DownloadTo reconstructs fileID into out, returning the number of bytes
// written.
func (d *Downloader) DownloadTo(ctx context.Context, fileID string, byteRange *cas.ByteRange, out Output) (int64, error) {
	requestID := uuid.New().String()
	log := d.log.With().Str("request_id", requestID).Str("file_id", fileID).Logger()

	if err := cas.ValidateFileID(fileID); err != nil {
		return 0, &ErrInvalidFileID{FileID: fileID}
	}
	if byteRange != nil && byteRange.Start == byteRange.End {
		return 0, nil
	}
	if byteRange != nil && byteRange.Start > byteRange.End {
		return 0, &ErrInvalidByteRange{Start: byteRange.Start, End: byteRange.End, Reason: "start after end"}
	}

	conn, err := d.tokens.ConnectionInfo(ctx, d.refreshURL, d.hubToken)
	if err != nil {
		if errors.Is(err, token.ErrMalformedResponse) {
			return 0, fmt.Errorf("%w: %v", ErrMalformedTokenResponse, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenRefreshFailed, err)
	}
	log.Debug().Str("cas_url", conn.CasURL).Msg("token ready")
	if err := d.checkScheme(conn.CasURL); err != nil {
		return 0, err
	}

	plan, err := d.casCli.GetReconstruction(ctx, conn.CasURL, conn.AccessToken, fileID, byteRange)
	if err != nil {
		if errors.Is(err, cas.ErrMalformedPlan) {
			return 0, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrReconstructionFailed, err)
	}
	for _, fis := range plan.FetchInfo {
		for _, fi := range fis {
			if err := d.checkScheme(fi.URL); err != nil {
				return 0, err
			}
		}
	}

	fetchCtx, cancelFetches := context.WithCancel(ctx)
	defer cancelFetches()

	sched := &scheduler{
		d:         d,
		plan:      plan,
		out:       out,
		fetchSem:  semaphore.NewWeighted(int64(d.cfg.MaxConcurrentFetches)),
		bufSem:    semaphore.NewWeighted(int64(d.cfg.DecodeBufferSlots)),
		inflight:  make(map[FetchRangeKey]*fetchFuture),
		cache:     make(map[FetchRangeKey]*fetchedXorb),
		usage:     plan.XorbUsageCounts(),
		skip:      plan.OffsetIntoFirstRange,
		log:       log,
	}
	if byteRange != nil {
		sched.remaining = int64(byteRange.End - byteRange.Start)
		sched.bounded = true
	}

	written, err := sched.run(fetchCtx)
	if err != nil {
		cancelFetches()
		sched.cancelInflight()
	}
	return written, err
}

// Shutdown releases idle connections held by the downloader's client pool.
// Cached tokens are preserved; in-flight downloads should be cancelled via
// their own context before calling Shutdown.
func (d *Downloader) Shutdown(ctx context.Context) error {
	for _, c := range d.clients.clients {
		c.CloseIdleConnections()
	}
	return nil
}

func (d *Downloader) checkScheme(rawURL string) error {
	if d.cfg.Insecure {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("xetcas: parsing url %q: %w", rawURL, err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("xetcas: refusing non-HTTPS url %q (enable insecure mode to override)", rawURL)
	}
	return nil
}

// fetchedXorb is the decoded, preallocated batch for a single fetch-info,
// remembered alongside the chunk index its batch starts at so splicing can
// translate a term's absolute chunk range into batch-relative offsets.
type fetchedXorb struct {
	batch   *xorb.Batch
	chunkLo int32
}

func (fx *fetchedXorb) slice(lo, hi int32) []byte {
	return fx.batch.Range(int(lo-fx.chunkLo), int(hi-fx.chunkLo))
}

// fetchFuture is resolved exactly once by the goroutine performing the
// fetch, and may be awaited by multiple terms sharing the same FetchRangeKey
// within a single download.
type fetchFuture struct {
	done   chan struct{}
	result *fetchedXorb
	err    error
}

func newFetchFuture() *fetchFuture {
	return &fetchFuture{done: make(chan struct{})}
}

func (f *fetchFuture) resolve(fx *fetchedXorb, err error) {
	f.result, f.err = fx, err
	close(f.done)
}

func (f *fetchFuture) wait(ctx context.Context) (*fetchedXorb, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// countingReader tallies bytes read from the underlying reader, so the
// caller can report how many compressed bytes a fetch actually pulled off
// the wire once decoding finishes.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// throttledReader holds a decode-buffer semaphore permit for the duration of
// each Read on the underlying reader, so at most DecodeBufferSlots reads are
// in progress at once across a download's fetches. The permit is released
// when Read returns, before the decoder has consumed the bytes read; bytes
// already buffered in the decoder or held as decoded batches are not
// counted against it.
type throttledReader struct {
	ctx context.Context
	r   io.Reader
	sem *semaphore.Weighted
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if err := t.sem.Acquire(t.ctx, 1); err != nil {
		return 0, err
	}
	defer t.sem.Release(1)
	return t.r.Read(p)
}

// fetchXorb issues the HTTP GET for fi, sized to decode exactly
// unpackedTotal bytes across the chunks it covers.
func (d *Downloader) fetchXorb(ctx context.Context, fi cas.FetchInfo, unpackedTotal int, bufSem *semaphore.Weighted) (*fetchedXorb, error) {
	start := time.Now()
	client := d.clients.get()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fi.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("xetcas: building fetch request: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", fi.URLRange.Start, fi.URLRange.End))

	resp, err := client.Do(req)
	if err != nil {
		d.metrics.fetchErrors.Inc()
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		d.metrics.fetchErrors.Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s returned status %d: %s", ErrFetchFailed, fi.URL, resp.StatusCode, body)
	}

	counted := &countingReader{r: resp.Body}
	reader := &throttledReader{ctx: ctx, r: counted, sem: bufSem}
	batch, err := xorb.DecodeBatch(reader, unpackedTotal)
	d.metrics.fetchBytes.Add(float64(counted.n))
	if err != nil {
		d.metrics.fetchErrors.Inc()
		return nil, fmt.Errorf("%w: %v", ErrXorbDecodeFailed, err)
	}

	d.metrics.fetches.Inc()
	d.metrics.fetchDuration.Observe(time.Since(start).Seconds())
	return &fetchedXorb{batch: batch, chunkLo: fi.ChunkRange.Start}, nil
}
