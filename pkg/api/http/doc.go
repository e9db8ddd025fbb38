// Package http provides the HTTP edge API.
//
// The HTTP server exposes endpoints for:
//   - Resource storage (PUT/GET /v1/:param)
//   - Metrics snapshots (JSON, MessagePack, Prometheus, WebSocket stream)
//   - Effective configuration
//   - Health checks
//
// Resource and snapshot endpoints run through the execution guard, so once
// shutdown begins they answer 503 while admitted requests finish.
package http
