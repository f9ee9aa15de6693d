package requestlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectPutter is the part of *s3.Client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configure the connection to an S3-compatible store such as MinIO.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// NewS3Client builds an S3 client with static credentials.
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.AccessKey,
			o.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.BaseEndpoint != "" {
			opts.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		opts.UsePathStyle = true
	}), nil
}

// maxRetainedBatches bounds how many batches of failed uploads S3Sink keeps
// for the next attempt. Older entries beyond it are discarded.
const maxRetainedBatches = 8

// S3Sink buffers entries and uploads them as JSON-lines objects of up to
// batchSize entries. Entries whose upload fails stay buffered and are retried
// on the next Write or Close.
type S3Sink struct {
	client    ObjectPutter
	bucket    string
	batchSize int
	now       func() time.Time

	mu  sync.Mutex
	buf []Entry
}

func NewS3Sink(client ObjectPutter, bucket string, batchSize int) *S3Sink {
	if batchSize < 1 {
		batchSize = 1
	}
	return &S3Sink{
		client:    client,
		bucket:    bucket,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// ObjectKey places an archive object under a date prefix.
func ObjectKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("requestlog/%d/%02d/%02d/%v.jsonl", t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *S3Sink) Write(ctx context.Context, batch []Entry) error {
	s.mu.Lock()
	s.buf = append(s.buf, batch...)
	var full [][]Entry
	for len(s.buf) >= s.batchSize {
		chunk := make([]Entry, s.batchSize)
		copy(chunk, s.buf[:s.batchSize])
		full = append(full, chunk)
		s.buf = s.buf[s.batchSize:]
	}
	s.mu.Unlock()

	var (
		failed []Entry
		errs   []error
	)
	for _, chunk := range full {
		if err := s.upload(ctx, chunk); err != nil {
			failed = append(failed, chunk...)
			errs = append(errs, err)
		}
	}
	s.retain(failed)
	return errors.Join(errs...)
}

// retain puts entries back in front of the buffer, keeping the newest ones
// when the buffer would exceed maxRetainedBatches.
func (s *S3Sink) retain(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := append(entries, s.buf...)
	if limit := maxRetainedBatches * s.batchSize; len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}
	s.buf = buf
}

// Close uploads whatever is still buffered.
func (s *S3Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	rest := s.buf
	s.buf = nil
	s.mu.Unlock()

	if len(rest) == 0 {
		return nil
	}
	if err := s.upload(ctx, rest); err != nil {
		s.retain(rest)
		return err
	}
	return nil
}

func (s *S3Sink) upload(ctx context.Context, entries []Entry) error {
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
	}

	key := ObjectKey(s.now())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
