// Package storage defines the output directory abstraction.
package storage

// Provider is the interface for export file operations.
type Provider interface {
	// Root returns the absolute output directory.
	Root() string
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}
