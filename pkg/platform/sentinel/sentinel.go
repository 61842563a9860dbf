// Package sentinel holds infrastructure facts returned by stores and sinks.
// Services translate them into coded domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound means the store holds no record under the key.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the backing service could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
