package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/modelkeeper/internal/flagx"
	"github.com/dmitrijs2005/modelkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept both
// "1m" strings and integer nanoseconds via timex.Duration.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	RequestLogFile          *string        `json:"request_log_file"`
	RequestLogQueueSize     int            `json:"request_log_queue_size"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	S3LogBatchSize          int            `json:"s3_log_batch_size"`
	MetricsNamespace        string         `json:"metrics_namespace"`
}

// parseJson loads the file named by -c/-config (if any) and overlays every
// field present in it onto config. request_log_file may be set to "" to
// disable the file sink, so it is tracked as a pointer.
//
// An unreadable file or invalid JSON panics: a config file that was asked
// for but cannot be applied is a startup error.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionValidityDuration.Duration > 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.RequestLogFile != nil {
		config.RequestLogFile = *c.RequestLogFile
	}
	if c.RequestLogQueueSize > 0 {
		config.RequestLogQueueSize = c.RequestLogQueueSize
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3LogBatchSize > 0 {
		config.S3LogBatchSize = c.S3LogBatchSize
	}
	setString(&config.MetricsNamespace, c.MetricsNamespace)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
