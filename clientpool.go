package xetcas

import (
	"crypto/tls"
	"net/http"
	"sync/atomic"
	"time"
)

// clientPool round-robins requests across a small fixed set of *http.Client
// instances, each with its own connection pool, so that a single download's
// concurrent fetches are not serialized behind one shared transport's
// per-host connection limit.
type clientPool struct {
	clients []*http.Client
	next    atomic.Uint64
}

func newClientPool(cfg *Config) *clientPool {
	pool := &clientPool{clients: make([]*http.Client, cfg.ClientPoolSize)}
	for i := range pool.clients {
		transport := &http.Transport{
			MaxIdleConnsPerHost: cfg.ConnectionsPerHost,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.Insecure}, //nolint:gosec
		}
		pool.clients[i] = &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
		}
	}
	return pool
}

// get returns the next client in round-robin order.
func (p *clientPool) get() *http.Client {
	n := p.next.Add(1) - 1
	return p.clients[n%uint64(len(p.clients))]
}
