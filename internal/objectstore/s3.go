// Package objectstore mirrors the cost-of-living cache file to a remote S3 bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ErrNotFound is returned by Download when the object does not exist.
var ErrNotFound = errors.New("object not found")

// ErrBucketNotConfigured is returned when no bucket name was configured.
var ErrBucketNotConfigured = errors.New("object store bucket is not configured")

// Config holds S3 connection settings.
type Config struct {
	Bucket string
	Region string
	// Endpoint overrides the S3 endpoint (MinIO, LocalStack). Path-style
	// addressing is enabled when set.
	Endpoint string
}

// S3Store downloads and uploads whole objects in a single bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3 loads the AWS config from the standard chain (AWS_PROFILE, env,
// shared config, IMDS) and builds an S3Store. Missing credentials are not an
// error here; they surface on the first remote call.
func NewS3(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*S3Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Endpoint != "" {
		optFns = append([]func(*s3.Options){func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}}, optFns...)
	}

	return NewS3FromClient(s3.NewFromConfig(awsCfg, optFns...), cfg.Bucket), nil
}

// NewS3FromClient wraps an existing S3 client.
func NewS3FromClient(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Bucket returns the configured bucket name.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// Download returns the object body, or ErrNotFound if the key does not exist.
func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	if s.bucket == "" {
		return nil, ErrBucketNotConfigured
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get S3 object %s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}
	return data, nil
}

// Upload replaces the object with data.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte) error {
	if s.bucket == "" {
		return ErrBucketNotConfigured
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put S3 object %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// isNotFound reports whether err is a definitive "key does not exist" answer.
// A missing bucket is a deployment error, not an empty cache.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		case "NoSuchBucket":
			return false
		}
	}

	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
