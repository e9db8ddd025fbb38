// Package guard provides request admission control for graceful shutdown.
//
// Every request enters the guard before its handler runs and releases its
// token when the handler returns. Shutdown flips a one-way flag: new
// requests are rejected with domain.ErrServiceStopped while admitted ones
// run to completion, and AwaitDrain waits (bounded) for them to finish.
package guard
