// Package server wires the modelkeeper server together: database pool and
// schema, services, request logging, metrics and the HTTP API. It also owns
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/modelkeeper/internal/logging"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/dmitrijs2005/modelkeeper/internal/server/config"
	"github.com/dmitrijs2005/modelkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/modelkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/modelkeeper/internal/server/requestlog"
	"github.com/dmitrijs2005/modelkeeper/internal/server/services"
)

const flushTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *requestlog.Dispatcher
	server     *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	sink, err := newRequestLogSink(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("request log init error: %w", err)
	}
	dispatcher := requestlog.NewDispatcher(sink, c.RequestLogQueueSize, logger)

	collector := metrics.NewCollector(c.MetricsNamespace)
	if err := collector.WatchDropped("requestlog_dropped_total", "Request log entries dropped because the queue was full", dispatcher.Dropped); err != nil {
		logger.Warn(ctx, "metric registration failed", "error", err)
	}

	sessions := auth.NewSessionStore([]byte(c.SecretKey), c.SessionValidityDuration)
	router := httpapi.NewRouter(httpapi.Deps{
		Accounts:       services.NewAccountService(db, rm, auth.BcryptVerifier{}, collector),
		Models:         services.NewModelService(db, rm, collector),
		Sessions:       sessions,
		Requests:       dispatcher,
		Metrics:        collector,
		MetricsHandler: collector.Handler(),
		Logger:         logger,
	})

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
		server:     httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
	}, nil
}

// newRequestLogSink combines the file sink and, when a bucket is configured,
// the S3 archive.
func newRequestLogSink(ctx context.Context, c *config.Config) (requestlog.Sink, error) {
	var sinks requestlog.MultiSink

	if c.RequestLogFile != "" {
		fs, err := requestlog.OpenFileSink(c.RequestLogFile)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}

	if c.S3Bucket != "" {
		client, err := requestlog.NewS3Client(ctx, requestlog.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			_ = sinks.Close(ctx)
			return nil, err
		}
		sinks = append(sinks, requestlog.NewS3Sink(client, c.S3Bucket, c.S3LogBatchSize))
	}

	if len(sinks) == 0 {
		return requestlog.Discard{}, nil
	}
	return sinks, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal or ctx cancellation, then flushes the
// request log and closes the database pool.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	runErr := app.server.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "http server failed", "error", runErr)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := app.dispatcher.Close(flushCtx); err != nil {
		app.logger.Warn(ctx, "request log flush incomplete", "error", err, "dropped", app.dispatcher.Dropped())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}

	app.logger.Info(ctx, "Stopped")
	return runErr
}
