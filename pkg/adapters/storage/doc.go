// Package storage provides resource store implementations.
//
// Implementations:
//   - redis: Redis with TTL under the coyote:resource: prefix
//   - memory: In-memory map, the default backend
package storage
