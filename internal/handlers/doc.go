// Package handlers implements the HTTP API served by "pixelpeek serve".
//
// Endpoints:
//   - POST /api/batches: run a batch from a JSON {"urls": [...]} body or a
//     plain-text/CSV URL list; ?format=csv streams the CSV instead of JSON
//   - GET /api/batches: recent batches from history (?limit=N)
//   - GET /api/batches/{id}: one batch with its outcomes
//   - GET /api/batches/{id}/csv: a stored batch re-rendered as CSV
//   - GET /healthz, /livez, /readyz: health probes
//   - GET /version: build information
//
// The history endpoints return 404 when no history database is configured.
package handlers
