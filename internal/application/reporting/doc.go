// Package reporting periodically exports metrics snapshots to sinks.
//
// A Reporter ticks on a fixed interval, takes one snapshot of the registry
// and hands it to every configured ports.SnapshotSink. Sink failures are
// logged and do not stop the loop.
package reporting
