package errors

// Package errors provides sentinel errors for source discovery and reading.

import "errors"

var (
	// ErrSourceDirNotFound indicates the configured source directory does not exist.
	ErrSourceDirNotFound = errors.New("source directory not found")

	// ErrSourceNotDirectory indicates the configured source path is a file.
	ErrSourceNotDirectory = errors.New("source path is not a directory")

	// ErrSourceWalkFailed indicates traversal of the source tree failed.
	ErrSourceWalkFailed = errors.New("source directory walk failed")

	// ErrFileReadFailed indicates reading a source document failed.
	ErrFileReadFailed = errors.New("source file read failed")
)
