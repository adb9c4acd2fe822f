package httptp

import "errors"

var (
	// ErrClosed is returned by Fetch after Close.
	ErrClosed = errors.New("httptp: closed")
)
