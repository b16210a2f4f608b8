package provider

import (
	"context"
	"io"
	"time"
)

// Limiter is the subset of internal/ratelimit's Limiter interface this
// package depends on, kept local to avoid an import cycle between
// provider and ratelimit (ratelimit registries are keyed by account, not
// by provider).
type Limiter interface {
	Acquire(ctx context.Context, n int) error
}

// RateLimitedProvider wraps a StorageProvider, acquiring n=1 request tokens
// from reqLimiter before every call and throttling Upload/Download payload
// bytes through byteLimiter, mirroring the teacher's nil-safe
// BandwidthLimiter wrapping idiom in bandwidth.go. Either limiter may be nil,
// meaning unlimited on that axis.
type RateLimitedProvider struct {
	inner       StorageProvider
	reqLimiter  Limiter
	byteLimiter Limiter
}

// NewRateLimitedProvider decorates inner with request- and byte-level rate
// limiting. Passing a nil limiter disables limiting on that axis.
func NewRateLimitedProvider(inner StorageProvider, reqLimiter, byteLimiter Limiter) *RateLimitedProvider {
	return &RateLimitedProvider{inner: inner, reqLimiter: reqLimiter, byteLimiter: byteLimiter}
}

func (p *RateLimitedProvider) acquireReq(ctx context.Context) error {
	if p.reqLimiter == nil {
		return nil
	}

	return p.reqLimiter.Acquire(ctx, 1)
}

func (p *RateLimitedProvider) List(ctx context.Context, dir string) ([]Metadata, error) {
	if err := p.acquireReq(ctx); err != nil {
		return nil, err
	}

	return p.inner.List(ctx, dir)
}

func (p *RateLimitedProvider) Stat(ctx context.Context, path string) (Metadata, error) {
	if err := p.acquireReq(ctx); err != nil {
		return Metadata{}, err
	}

	return p.inner.Stat(ctx, path)
}

func (p *RateLimitedProvider) Exists(ctx context.Context, path string) (bool, error) {
	if err := p.acquireReq(ctx); err != nil {
		return false, err
	}

	return p.inner.Exists(ctx, path)
}

func (p *RateLimitedProvider) Mkdir(ctx context.Context, path string) error {
	if err := p.acquireReq(ctx); err != nil {
		return err
	}

	return p.inner.Mkdir(ctx, path)
}

func (p *RateLimitedProvider) Delete(ctx context.Context, path string, recursive bool) error {
	if err := p.acquireReq(ctx); err != nil {
		return err
	}

	return p.inner.Delete(ctx, path, recursive)
}

func (p *RateLimitedProvider) Upload(ctx context.Context, path string, r io.Reader, size int64, modTime time.Time) (Metadata, error) {
	if err := p.acquireReq(ctx); err != nil {
		return Metadata{}, err
	}

	return p.inner.Upload(ctx, path, p.wrapReader(ctx, r), size, modTime)
}

func (p *RateLimitedProvider) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := p.acquireReq(ctx); err != nil {
		return nil, err
	}

	rc, err := p.inner.Download(ctx, path)
	if err != nil {
		return nil, err
	}

	if p.byteLimiter == nil {
		return rc, nil
	}

	return &rateLimitedReadCloser{ReadCloser: rc, limiter: p.byteLimiter, ctx: ctx}, nil
}

func (p *RateLimitedProvider) Move(ctx context.Context, oldPath, newPath string) error {
	if err := p.acquireReq(ctx); err != nil {
		return err
	}

	return p.inner.Move(ctx, oldPath, newPath)
}

func (p *RateLimitedProvider) Verify(ctx context.Context) error {
	if err := p.acquireReq(ctx); err != nil {
		return err
	}

	return p.inner.Verify(ctx)
}

func (p *RateLimitedProvider) Name() string {
	return p.inner.Name()
}

func (p *RateLimitedProvider) wrapReader(ctx context.Context, r io.Reader) io.Reader {
	if p.byteLimiter == nil {
		return r
	}

	return &rateLimitedReader{r: r, limiter: p.byteLimiter, ctx: ctx}
}

// rateLimitedReader throttles bytes read through a Limiter, one token per byte.
type rateLimitedReader struct {
	r       io.Reader
	limiter Limiter
	ctx     context.Context
}

func (r *rateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		if wErr := r.limiter.Acquire(r.ctx, n); wErr != nil {
			return n, wErr
		}
	}

	return n, err
}

type rateLimitedReadCloser struct {
	io.ReadCloser
	limiter Limiter
	ctx     context.Context
}

func (r *rateLimitedReadCloser) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		if wErr := r.limiter.Acquire(r.ctx, n); wErr != nil {
			return n, wErr
		}
	}

	return n, err
}
