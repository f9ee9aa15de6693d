package requestlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/modelkeeper/internal/logging"
)

// LogSink writes every entry as one structured log record.
type LogSink struct {
	logger logging.Logger
	closer io.Closer
}

func NewLogSink(logger logging.Logger, closer io.Closer) *LogSink {
	return &LogSink{logger: logger, closer: closer}
}

// OpenFileSink appends JSON lines to path, creating it if needed.
func OpenFileSink(path string) (*LogSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return NewLogSink(logging.NewJSONLogger(f, slog.LevelInfo), f), nil
}

func (s *LogSink) Write(ctx context.Context, batch []Entry) error {
	for _, e := range batch {
		args := []any{
			"request_id", e.RequestID,
			"method", e.Method,
			"endpoint", e.Endpoint,
			"path", e.Path,
			"status", e.Status,
			"duration", e.Duration,
			"request_time", e.Time,
		}
		if e.RemoteAddr != "" {
			args = append(args, "remote_addr", e.RemoteAddr)
		}
		if e.AccountID != 0 {
			args = append(args, "account_id", e.AccountID)
		}
		s.logger.Info(ctx, "api request", args...)
	}
	return nil
}

func (s *LogSink) Close(context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// MultiSink fans each batch out to every sink. One failing sink does not stop
// the others.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, batch []Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Write(context.Context, []Entry) error { return nil }
func (Discard) Close(context.Context) error          { return nil }
