// Package errors provides the classified error primitives used across wikii.
//
// A ClassifiedError carries a category (config, filesystem, build, index, search, ...),
// a severity and a retry hint next to the wrapped cause, so the CLI can pick an exit
// code and the query service can pick an HTTP status without string matching.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "write page").
//		WithContext("page", "about.html").
//		Build()
package errors
