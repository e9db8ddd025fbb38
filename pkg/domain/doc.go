// Package domain holds the types shared by every layer of the service.
//
// The error taxonomy is closed: every failure is one of the Kind values and
// the transports map each kind to a status with an exhaustive switch.
package domain
