package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"pixelpeek/internal/logging"
	"pixelpeek/internal/metrics"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isStaleError reports whether err is a transient network filesystem error
// worth retrying: a stale NFS handle (ESTALE) or an interrupted call.
func isStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE || errno == syscall.EINTR
	}

	return false
}

// OpenWithRetry performs os.Open, retrying stale file handle errors.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path) //nolint:gosec // G304 - operator-supplied path
	})
}

// CreateWithRetry performs os.Create, retrying stale file handle errors.
func CreateWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("create", path, config, func() (*os.File, error) {
		return os.Create(path) //nolint:gosec // G304 - operator-supplied path
	})
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// MaxRetries retries have been spent. Backoff doubles up to MaxBackoff.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	backoff := config.InitialBackoff

	var (
		result  T
		lastErr error
	)
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, lastErr = fn()
		if lastErr == nil {
			if attempt > 0 {
				logging.Info("Filesystem %s succeeded on retry %d for %s", op, attempt, path)
				metrics.FilesystemRetriesTotal.WithLabelValues(op, "success").Inc()
			}
			metrics.FilesystemOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
			return result, nil
		}

		if !isStaleError(lastErr) {
			metrics.FilesystemOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
			return result, lastErr
		}

		metrics.FilesystemStaleErrors.WithLabelValues(op).Inc()

		// no sleep after the last attempt
		if attempt < config.MaxRetries {
			metrics.FilesystemRetriesTotal.WithLabelValues(op, "attempt").Inc()
			logging.Debug("Filesystem %s stale handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("Filesystem %s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	metrics.FilesystemRetriesTotal.WithLabelValues(op, "failure").Inc()
	metrics.FilesystemOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return result, lastErr
}
