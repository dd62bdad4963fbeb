// Package middleware provides HTTP middleware for the pixelpeek API server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Panic recovery
package middleware
