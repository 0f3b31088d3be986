// Package storage defines the vault file-system abstraction.
package storage

import "time"

// FileInfo is the stat metadata of a vault file.
type FileInfo struct {
	Path     string
	Size     int64
	Created  time.Time
	Modified time.Time
}

// Provider is the interface for vault file operations. Paths are relative
// to the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every .md file under dir, skipping hidden
	// directories.
	List(dir string) ([]FileInfo, error)
	// Stat returns metadata for the file at path.
	Stat(path string) (FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}
