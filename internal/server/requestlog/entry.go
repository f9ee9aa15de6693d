// Package requestlog records one entry per API request off the request path.
// Entries go through a bounded queue to a single worker that hands them to a
// Sink; a full queue drops entries instead of slowing requests down.
package requestlog

import (
	"context"
	"time"
)

// Entry describes one served request. It never holds request bodies, so
// credentials posted to the login endpoint cannot reach a sink.
type Entry struct {
	RequestID  string        `json:"request_id"`
	Time       time.Time     `json:"time"`
	Method     string        `json:"method"`
	Endpoint   string        `json:"endpoint"`
	Path       string        `json:"path"`
	Status     int           `json:"status"`
	Duration   time.Duration `json:"duration_ns"`
	RemoteAddr string        `json:"remote_addr,omitempty"`
	AccountID  int64         `json:"account_id,omitempty"`
}

// Sink persists batches of entries.
type Sink interface {
	Write(ctx context.Context, batch []Entry) error
	Close(ctx context.Context) error
}
