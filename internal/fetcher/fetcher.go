package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pixelpeek/internal/imagemeta"
	"pixelpeek/internal/logging"
)

const (
	// DefaultTimeout bounds one request including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodyBytes caps how much of a response is read. Headers of
	// every supported format sit well inside this, so oversized bodies are
	// truncated rather than rejected.
	DefaultMaxBodyBytes = 64 << 20

	// DefaultUserAgent is sent when Config.UserAgent is empty.
	DefaultUserAgent = "PixelPeek/1.0"
)

// Permits is a counting limiter. *semaphore.Weighted satisfies it.
type Permits interface {
	Acquire(ctx context.Context, n int64) error
	Release(n int64)
}

// Config holds HTTP client settings for a Fetcher.
type Config struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	MaxBodyBytes       int64
	UserAgent          string
}

// DefaultConfig returns the batch defaults, including relaxed TLS verification.
func DefaultConfig() Config {
	return Config{
		Timeout:            DefaultTimeout,
		InsecureSkipVerify: true,
		MaxBodyBytes:       DefaultMaxBodyBytes,
		UserAgent:          DefaultUserAgent,
	}
}

// Fetcher performs single-attempt image fetches with its own HTTP client.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher. Zero values in config fall back to the defaults.
func New(config Config) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // G402 - opt-out flag, see package doc
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		config: config,
	}
}

// Close releases idle connections held by the client.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// Fetch retrieves url under one permit from permits and returns its Outcome.
// It never returns an error: every failure is folded into the Outcome.
func (f *Fetcher) Fetch(ctx context.Context, permits Permits, index int, url string) (outcome Outcome) {
	obs := observe()

	waitStart := time.Now()
	if err := permits.Acquire(ctx, 1); err != nil {
		logging.Debug("Permit not acquired for #%d %s: %v", index, url, err)
		return NetworkFailure(index, url, 0, contextCause(err))
	}
	defer permits.Release(1)
	obs.ObservePermitWait(time.Since(waitStart).Seconds())

	start := time.Now()
	obs.ObserveFetchStarted()
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Recovered panic fetching %s: %v", url, r)
			outcome = NetworkFailure(index, url, 0, fmt.Sprintf("internal error: %v", r))
		}
		obs.ObserveFetchFinished(outcome.Kind, time.Since(start).Seconds())
	}()

	outcome = f.fetch(ctx, index, url)
	logging.Debug("Fetched #%d %s: %s in %v", index, url, outcome.Kind, time.Since(start))
	return outcome
}

func (f *Fetcher) fetch(ctx context.Context, index int, url string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return NetworkFailure(index, url, 0, err.Error())
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return NetworkFailure(index, url, 0, contextCause(ctxErr))
		}
		return NetworkFailure(index, url, 0, err.Error())
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debug("failed to close response body for %s: %v", url, err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return NetworkFailure(index, url, resp.StatusCode, StatusCause(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return NetworkFailure(index, url, 0, contextCause(ctxErr))
		}
		return NetworkFailure(index, url, 0, fmt.Sprintf("failed to read body: %v", err))
	}

	meta, err := imagemeta.Extract(body)
	if err != nil {
		return DecodeFailure(index, url, err.Error())
	}
	return Succeeded(index, url, meta)
}

// StatusCause is the cause text for a non-200 response.
func StatusCause(code int) string {
	return fmt.Sprintf("Failed to fetch (HTTP %d)", code)
}

func contextCause(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}
	return err.Error()
}
