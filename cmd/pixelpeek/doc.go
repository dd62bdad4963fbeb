// Package main provides the pixelpeek command.
//
// PixelPeek fetches a list of image URLs concurrently, decodes each image
// header and writes one CSV row per URL with the width, height, color mode
// and format, or the reason the URL failed.
//
// # Commands
//
//	pixelpeek run [flags] [urls...]     fetch URLs and write the CSV report
//	pixelpeek serve [flags]             run the HTTP API
//	pixelpeek history [flags] [id]      list recorded batches, or show one
//	pixelpeek version                   print build information
//
// URLs for run come from -i (a file, or "-" for stdin), then the positional
// arguments. With neither, piped stdin is read.
//
// # Configuration
//
// Settings are applied in order: built-in defaults, the YAML file named by
// -config or PIXELPEEK_CONFIG, a .env file in the working directory, the
// environment, and finally any flags given explicitly. See
// [pixelpeek/internal/startup] for the full list of keys.
//
// # HTTP API
//
//   - POST /api/batches: run a batch from {"urls": [...]} or a plain-text
//     list; ?format=csv streams the report instead of JSON
//   - GET /api/batches: recent batches from history
//   - GET /api/batches/{id} and /api/batches/{id}/csv: one stored batch
//   - GET /healthz, /livez, /readyz, /version, /metrics
//
// # Graceful Shutdown
//
// SIGINT and SIGTERM cancel in-flight batches (their remaining URLs are
// reported as failed rows) and, in serve mode, drain the HTTP server with a
// 30 second timeout before the history database is closed.
package main
