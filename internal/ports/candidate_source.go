// Package ports defines the interfaces for external-facing adapters
package ports

// CandidateSource feeds candidate batches into the engine from the outside
// world, e.g. a spool directory written by another process.
type CandidateSource interface {
	// Start begins consuming candidates. Non-blocking.
	Start() error

	// Stop halts consumption and releases resources
	Stop() error
}
