package http

import (
	"context"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ConnPool is a fixed-size pool of connections to the image server.
//
// At most Size responses are open at any time. Open blocks while all slots
// are busy and gives up when its context is cancelled. The pool is never
// resized.
type ConnPool struct {
	client *Client
	sem    *semaphore.Weighted
	size   int
}

// NewConnPool creates a pool of size connections using cfg for requests.
// cfg.MaxConnsPerHost is overridden with size.
func NewConnPool(cfg Config, size int) *ConnPool {
	if size < 1 {
		size = 1
	}
	cfg.MaxConnsPerHost = size

	return &ConnPool{
		client: NewClient(cfg),
		sem:    semaphore.NewWeighted(int64(size)),
		size:   size,
	}
}

// Size returns the pool capacity.
func (p *ConnPool) Size() int {
	return p.size
}

// Acquire blocks until a slot is free or ctx is done.
func (p *ConnPool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release returns a slot taken with Acquire.
func (p *ConnPool) Release() {
	p.sem.Release(1)
}

// Open acquires a slot and performs a GET request.
//
// The slot is held until the returned body is closed. On error the slot is
// released before returning.
func (p *ConnPool) Open(ctx context.Context, url string) (*http.Response, error) {
	if err := p.Acquire(ctx); err != nil {
		return nil, err
	}

	resp, err := p.client.Open(ctx, url)
	if err != nil {
		p.Release()
		return nil, err
	}

	resp.Body = &pooledBody{ReadCloser: resp.Body, release: p.Release}
	return resp, nil
}

// CloseIdle closes connections kept alive by the pool's transport.
func (p *ConnPool) CloseIdle() {
	p.client.httpClient.CloseIdleConnections()
}

type pooledBody struct {
	io.ReadCloser
	release func()
	once    sync.Once
}

func (b *pooledBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}
