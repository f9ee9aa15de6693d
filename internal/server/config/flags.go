package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/modelkeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-l", "-q", "-u", "-p", "-b", "-g", "-e", "-n", "-m"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret key
//	-t int      session validity, minutes
//	-l string   request log file ("" disables)
//	-q int      request log queue size
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket for request log archive ("" disables)
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-n int      request log entries per archived S3 object
//	-m string   Prometheus metrics namespace
//
// Arguments are filtered with flagx.FilterArgs first so that -c/-config and
// unknown flags do not make parsing fail. Invalid values panic.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity duration (in minutes)")

	fs.StringVar(&config.RequestLogFile, "l", config.RequestLogFile, "request log file")
	fs.IntVar(&config.RequestLogQueueSize, "q", config.RequestLogQueueSize, "request log queue size")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for request log archive")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.IntVar(&config.S3LogBatchSize, "n", config.S3LogBatchSize, "request log entries per S3 object")
	fs.StringVar(&config.MetricsNamespace, "m", config.MetricsNamespace, "metrics namespace")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		panic(err)
	}

	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
}
