package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/arbworks/odds-core/pkg/logger"
)

// RetryPolicy makes the store's retry behavior explicit at the call site:
// every operation is attempted at most MaxAttempts times with a fixed delay
// between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy mirrors the five fixed attempts the pipeline has
// always used against S3.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Delay:       2 * time.Second,
	}
}

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store reads and writes blobs in a single S3 bucket.
type Store struct {
	client s3API
	bucket string
	retry  RetryPolicy
	logger *logger.Logger
}

// New creates a store using the ambient AWS credential chain.
func New(ctx context.Context, bucket string, policy RetryPolicy) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket, policy), nil
}

// NewWithClient creates a store around an existing S3 client.
func NewWithClient(client s3API, bucket string, policy RetryPolicy) *Store {
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	return &Store{
		client: client,
		bucket: bucket,
		retry:  policy,
		logger: logger.New("blob-store"),
	}
}

// PutJSON persists a payload as a pretty-printed JSON document under the
// given key. Four-space indentation keeps the blobs readable in storage
// browsers.
func (s *Store) PutJSON(ctx context.Context, key string, payload any) error {
	body, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", key, err)
	}
	return s.putObject(ctx, key, body, "application/json")
}

// PutBytes persists an opaque body under the given key.
func (s *Store) PutBytes(ctx context.Context, key string, body []byte) error {
	return s.putObject(ctx, key, body, "application/octet-stream")
}

func (s *Store) putObject(ctx context.Context, key string, body []byte, contentType string) error {
	start := time.Now()
	attempts, err := s.withRetry(ctx, func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		return err
	})
	s.logger.LogStorageOperation("put", key, attempts, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// GetJSON reads a JSON blob into out.
func (s *Store) GetJSON(ctx context.Context, key string, out any) error {
	start := time.Now()
	var body []byte
	attempts, err := s.withRetry(ctx, func() error {
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err = io.ReadAll(resp.Body)
		return err
	})
	s.logger.LogStorageOperation("get", key, attempts, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to get object %s: %w", key, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode object %s: %w", key, err)
	}
	return nil
}

// List returns the keys of every object under the prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var continuation *string

	for {
		var page *s3.ListObjectsV2Output
		attempts, err := s.withRetry(ctx, func() error {
			var err error
			page, err = s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(s.bucket),
				Prefix:            aws.String(prefix),
				ContinuationToken: continuation,
			})
			return err
		})
		if err != nil {
			s.logger.LogStorageOperation("list", prefix, attempts, 0, err)
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}

		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}

		if page.NextContinuationToken == nil {
			break
		}
		continuation = page.NextContinuationToken
	}

	if len(keys) == 0 {
		s.logger.Warn().
			Str("action", "empty_listing").
			Str("prefix", prefix).
			Msg("Listing produced no objects, check the prefix")
	}
	return keys, nil
}

// withRetry runs fn up to the policy's attempt budget, returning the number
// of attempts made and the last error.
func (s *Store) withRetry(ctx context.Context, fn func() error) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return attempt, nil
		}

		if attempt == s.retry.MaxAttempts {
			return attempt, lastErr
		}

		select {
		case <-time.After(s.retry.Delay):
		case <-ctx.Done():
			return attempt, ctx.Err()
		}
	}
	return s.retry.MaxAttempts, lastErr
}
