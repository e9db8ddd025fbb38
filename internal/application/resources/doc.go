// Package resources implements the resource endpoints' application logic.
//
// The service validates keys and values, delegates persistence to a
// ports.ResourceStore and records the outcome of every call in the edge
// metric set:
//   - putRequest / getRequest / deleteRequest success and error meters
//   - a per-exception meter for every failure
//
// Store failures that are not already classified are reported as
// OPERATION_FAILED.
package resources
