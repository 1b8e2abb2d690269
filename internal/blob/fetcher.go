// Package blob reads raw stored objects. The mail-receiving pipeline drops
// each inbound email into object storage and only hands us the bucket/key
// pair in the webhook notification.
package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/connectohq/connecto/internal/config"
)

// Fetcher retrieves the raw content of a stored object as text.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) (string, error)
}

// S3Fetcher reads objects from S3 or an S3-compatible endpoint.
type S3Fetcher struct {
	client  *s3.Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewS3Fetcher builds a fetcher from ambient AWS credentials plus the blob
// config. A non-empty endpoint overrides the AWS default for S3-compatible
// stores.
func NewS3Fetcher(ctx context.Context, log *slog.Logger, cfg config.BlobConfig, timeout time.Duration) (*S3Fetcher, error) {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if strings.TrimSpace(cfg.Region) != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if strings.TrimSpace(cfg.Endpoint) != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Fetcher{
		client:  client,
		logger:  log.With(slog.String("service", "blob")),
		timeout: timeout,
	}, nil
}

// Fetch downloads one object and returns its content. The call is bounded
// by the fetcher timeout so a stalled download cannot hold a webhook
// invocation open indefinitely.
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}
	return string(data), nil
}

var _ Fetcher = (*S3Fetcher)(nil)
