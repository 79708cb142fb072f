// Package token provides short-lived CAS access credentials, cached per
// (refresh URL, hub token) pair and refreshed with single-flight
// coalescing so that a burst of concurrent callers with an expired token
// triggers exactly one HTTP round trip.
package token

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultSafetyWindow is the margin before a token's expiry during which
// it is treated as stale and refreshed early.
const DefaultSafetyWindow = 60 * time.Second

// ConnectionInfo is the cached result of a successful token refresh: the
// CAS origin to talk to and the bearer token to present there.
type ConnectionInfo struct {
	CasURL      string
	AccessToken string
	ExpiresAt   time.Time
}

type cacheKey struct {
	refreshURL string
	hubToken   string
}

func (k cacheKey) String() string {
	return k.refreshURL + "\x00" + k.hubToken
}

// Provider caches connection info per (refresh URL, hub token) and
// coalesces concurrent refreshes of the same key.
type Provider struct {
	httpClient   *http.Client
	safetyWindow time.Duration
	now          func() time.Time
	log          zerolog.Logger
	onRefresh    func()

	mu    sync.RWMutex
	cache map[cacheKey]ConnectionInfo

	group singleflight.Group
}

// Option configures a Provider at construction.
type Option func(*Provider)

// WithHTTPClient overrides the client used for refresh requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithSafetyWindow overrides DefaultSafetyWindow.
func WithSafetyWindow(d time.Duration) Option {
	return func(p *Provider) { p.safetyWindow = d }
}

// WithLogger attaches a logger for refresh activity.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// WithOnRefresh registers a callback invoked once per completed network
// refresh (not once per caller — callers sharing a coalesced refresh via
// singleflight only trigger one call).
func WithOnRefresh(fn func()) Option {
	return func(p *Provider) { p.onRefresh = fn }
}

// SetLogger replaces the provider's logger after construction, so a
// caller that only learns its logger after building its own dependents
// (e.g. a Downloader wiring itself up before a logger is attached) can
// still route token-refresh logs through it.
func (p *Provider) SetLogger(l zerolog.Logger) {
	p.log = l
}

// SetOnRefresh replaces the provider's refresh callback after
// construction, mirroring SetLogger.
func (p *Provider) SetOnRefresh(fn func()) {
	p.onRefresh = fn
}

// NewProvider constructs a Provider with the given options applied over
// sane defaults.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		httpClient:   http.DefaultClient,
		safetyWindow: DefaultSafetyWindow,
		now:          time.Now,
		log:          zerolog.Nop(),
		cache:        make(map[cacheKey]ConnectionInfo),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	Exp         int64  `json:"exp"`
	CasURL      string `json:"casUrl"`
}

// ConnectionInfo returns cached connection info for (refreshURL, hubToken)
// if it is not within the safety window of expiring, otherwise awaits a
// (possibly shared) refresh.
func (p *Provider) ConnectionInfo(ctx context.Context, refreshURL, hubToken string) (ConnectionInfo, error) {
	key := cacheKey{refreshURL: refreshURL, hubToken: hubToken}

	if info, ok := p.lookup(key); ok {
		return info, nil
	}

	v, err, shared := p.group.Do(key.String(), func() (interface{}, error) {
		// A refresh that finished between the lookup above and this call
		// has already filled the cache; reuse it instead of refreshing again.
		if info, ok := p.lookup(key); ok {
			return info, nil
		}
		return p.refresh(ctx, refreshURL, hubToken)
	})
	if err != nil {
		return ConnectionInfo{}, err
	}
	info := v.(ConnectionInfo)
	p.log.Debug().Bool("shared", shared).Str("cas_url", info.CasURL).Msg("token refreshed")
	return info, nil
}

func (p *Provider) lookup(key cacheKey) (ConnectionInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	info, ok := p.cache[key]
	if !ok {
		return ConnectionInfo{}, false
	}
	if !info.ExpiresAt.After(p.now().Add(p.safetyWindow)) {
		return ConnectionInfo{}, false
	}
	return info, true
}

func (p *Provider) refresh(ctx context.Context, refreshURL, hubToken string) (ConnectionInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, refreshURL, nil)
	if err != nil {
		return ConnectionInfo{}, fmt.Errorf("token: building refresh request: %w", err)
	}
	if hubToken != "" {
		req.Header.Set("Authorization", "Bearer "+hubToken)
	}
	req.Header.Set("Cache-Control", "reload")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ConnectionInfo{}, fmt.Errorf("token: refresh request to %s: %w", refreshURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ConnectionInfo{}, fmt.Errorf("token: reading refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ConnectionInfo{}, &ErrRefreshFailed{RefreshURL: refreshURL, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed refreshResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return ConnectionInfo{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.AccessToken == "" || parsed.CasURL == "" {
		return ConnectionInfo{}, ErrMalformedResponse
	}

	info := ConnectionInfo{
		CasURL:      parsed.CasURL,
		AccessToken: parsed.AccessToken,
		ExpiresAt:   time.Unix(parsed.Exp, 0),
	}

	key := cacheKey{refreshURL: refreshURL, hubToken: hubToken}
	p.mu.Lock()
	p.cache[key] = info
	p.mu.Unlock()

	if p.onRefresh != nil {
		p.onRefresh()
	}

	return info, nil
}
