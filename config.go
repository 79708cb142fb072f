package xetcas

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
)

// Config controls the concurrency, timeouts, and connection pooling of a
// Downloader. Zero-value fields are filled in by NewConfig using the
// defaults below.
type Config struct {
	// MaxConcurrentFetches bounds the number of in-flight xorb HTTP GETs.
	MaxConcurrentFetches int `default:"8"`
	// DecodeBufferSlots bounds the number of xorb response-body reads in
	// progress at once across a download's fetches (see throttledReader).
	// Decoded xorb buffers awaiting splicing are not counted against it.
	DecodeBufferSlots int `default:"16"`
	// ConnectTimeout and ReadTimeout are added together into each pooled
	// client's overall request timeout (http.Client.Timeout), which covers
	// connecting, sending the request, and reading the whole response
	// body. Neither is enforced as a separate bound.
	ConnectTimeout time.Duration `default:"10s"`
	// ReadTimeout is the second part of the summed request timeout; see
	// ConnectTimeout.
	ReadTimeout time.Duration `default:"60s"`
	// SafetyWindow is the token staleness margin; see token.Provider.
	SafetyWindow time.Duration `default:"60s"`
	// Insecure disables TLS certificate verification. Only meant for
	// talking to local or test CAS deployments.
	Insecure bool `default:"false"`
	// ClientPoolSize is the number of distinct *http.Client instances to
	// round-robin fetch requests across, spreading connection reuse
	// across more underlying connection pools.
	ClientPoolSize int `default:"4"`
	// ConnectionsPerHost bounds idle connections kept per host by each
	// pooled client.
	ConnectionsPerHost int `default:"32"`
}

// NewConfig returns a Config with every unset field defaulted.
func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("xetcas: applying config defaults: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("xetcas: MaxConcurrentFetches must be positive, got %d", c.MaxConcurrentFetches)
	}
	if c.DecodeBufferSlots <= 0 {
		return fmt.Errorf("xetcas: DecodeBufferSlots must be positive, got %d", c.DecodeBufferSlots)
	}
	if c.ClientPoolSize <= 0 {
		return fmt.Errorf("xetcas: ClientPoolSize must be positive, got %d", c.ClientPoolSize)
	}
	return nil
}

// Option configures a Downloader at construction, overriding NewConfig's
// defaults.
type Option func(*Config) error

// WithMaxConcurrentFetches bounds simultaneous xorb HTTP GETs.
func WithMaxConcurrentFetches(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("xetcas: MaxConcurrentFetches must be positive, got %d", n)
		}
		c.MaxConcurrentFetches = n
		return nil
	}
}

// WithDecodeBufferSlots bounds concurrent xorb response-body reads.
func WithDecodeBufferSlots(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("xetcas: DecodeBufferSlots must be positive, got %d", n)
		}
		c.DecodeBufferSlots = n
		return nil
	}
}

// WithTimeouts overrides the connect and read timeouts.
func WithTimeouts(connect, read time.Duration) Option {
	return func(c *Config) error {
		c.ConnectTimeout = connect
		c.ReadTimeout = read
		return nil
	}
}

// WithSafetyWindow overrides the token staleness margin.
func WithSafetyWindow(d time.Duration) Option {
	return func(c *Config) error {
		c.SafetyWindow = d
		return nil
	}
}

// WithInsecure disables TLS certificate verification.
func WithInsecure(insecure bool) Option {
	return func(c *Config) error {
		c.Insecure = insecure
		return nil
	}
}

// WithClientPool sets the round-robin HTTP client pool size and the
// idle-connections-per-host bound for each client in it.
func WithClientPool(size, connectionsPerHost int) Option {
	return func(c *Config) error {
		if size <= 0 {
			return fmt.Errorf("xetcas: ClientPoolSize must be positive, got %d", size)
		}
		c.ClientPoolSize = size
		c.ConnectionsPerHost = connectionsPerHost
		return nil
	}
}
