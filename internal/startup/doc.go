// Package startup handles configuration loading and startup/shutdown
// logging.
//
// # Configuration
//
// [LoadConfig] applies, in order: built-in defaults, an optional YAML file
// (path from -config or PIXELPEEK_CONFIG), an optional .env file in the
// working directory, and environment variables. The CLI applies explicitly
// set flags last.
//
// Supported environment variables:
//
//   - PIXELPEEK_MAX_CONCURRENT: permit pool size, 0 for auto (default: 10)
//   - PIXELPEEK_OUTPUT: CSV output path (default: image_details.csv)
//   - PIXELPEEK_REQUEST_TIMEOUT: per-request timeout as Go duration (default: 30s)
//   - PIXELPEEK_BATCH_TIMEOUT: whole-batch deadline as Go duration (default: none)
//   - PIXELPEEK_TLS_INSECURE: skip TLS certificate verification (default: true)
//   - PIXELPEEK_MAX_BODY_BYTES: response body cap (default: 67108864)
//   - PIXELPEEK_USER_AGENT: User-Agent header (default: PixelPeek/<version>)
//   - PIXELPEEK_DATABASE: history database file; empty disables history
//   - PORT: HTTP server port for serve (default: 8080)
//   - METRICS_ENABLED: expose /metrics in serve mode (default: true)
//   - LOG_HEALTH_CHECKS: log /healthz requests (default: true)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// YAML keys use the snake_case names (max_concurrent, output_path, ...).
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
