package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the admin server receives a request.
// The context carries the request ID.
type HTTPStart struct {
	Route   string
	Request *http.Request
}

// HTTPFinish is emitted after the handler completes.
type HTTPFinish struct {
	Route    string
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// ServeStart is emitted once the admin server is listening.
type ServeStart struct {
	Path string
	Addr string
}
