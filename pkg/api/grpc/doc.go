// Package grpc provides the gRPC server.
//
// It serves the standard grpc.health.v1.Health service and reflection.
// Every other RPC passes through the execution guard and is rejected with
// codes.Unavailable once shutdown has begun.
package grpc
