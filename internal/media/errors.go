package media

import "errors"

var (
	// ErrProberUnavailable indicates no duration prober is configured.
	ErrProberUnavailable = errors.New("media prober unavailable")
	// ErrJanitorClosed indicates the janitor no longer accepts work.
	ErrJanitorClosed = errors.New("media janitor closed")
	// ErrJanitorFull indicates the cleanup queue had no room for another job.
	ErrJanitorFull = errors.New("media janitor queue full")
	// ErrStoreUnavailable indicates no object store is configured.
	ErrStoreUnavailable = errors.New("media store unavailable")
)
