// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that allows
// running multiple workers in a unified way.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Run starts the worker's loop and is expected to spawn its goroutine
// internally and return. Stop cancels the loop and blocks until it has
// fully exited.
type Worker interface {
	Run(ctx context.Context)
	Stop()
}
