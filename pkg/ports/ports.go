// Package ports declares the interfaces the application layer depends on.
package ports

import (
	"context"

	"github.com/aescanero/coyote/pkg/metrics"
)

// ResourceStore persists opaque resource values by key.
// Get and Delete return a domain.KindResourceDoesNotExist error for unknown
// keys; PutIfAbsent returns domain.KindResourceAlreadyExists for known ones.
type ResourceStore interface {
	Put(ctx context.Context, key string, value []byte) error
	PutIfAbsent(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// SnapshotSink receives periodic metrics snapshots.
type SnapshotSink interface {
	Name() string
	Report(ctx context.Context, snapshot *metrics.Snapshot) error
}
