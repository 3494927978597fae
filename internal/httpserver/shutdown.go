package httpserver

import "time"

// ShutdownTimeout bounds graceful shutdown, including draining the media janitor.
var ShutdownTimeout = 15 * time.Second
