// Package events provides metrics snapshot sinks.
//
// Implementations:
//   - redis: Redis Streams (XADD with approximate trimming)
//   - memory: In-process hub feeding live subscribers
package events
