package models

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotPublished marks a bhavcopy that does not exist for the requested
	// date (weekend, exchange holiday, or not yet published).
	ErrNotPublished = errors.New("bhavcopy not published")

	// ErrInvalidArgument marks a caller error such as a missing symbol.
	ErrInvalidArgument = errors.New("invalid argument")
)

// NetworkError is returned when the bhavcopy fetch fails at the transport
// level or the archive answers with a non-2xx status.
type NetworkError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotPublished) match a 404 from the archive.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNotPublished && e.StatusCode == http.StatusNotFound
}

// ParseError is returned when a bhavcopy cannot be read as CSV or lacks a
// required column.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse bhavcopy line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse bhavcopy: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StorageError wraps a database failure with the operation that caused it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
