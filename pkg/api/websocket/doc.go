// Package websocket provides real-time metrics streaming via WebSocket.
//
// Clients can connect to /metrics/stream to receive the current snapshot
// followed by every snapshot the reporter publishes.
package websocket
