// Package s3 implements types.ObjectStorage on AWS S3 or an S3-compatible
// endpoint.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability"
	"github.com/Lytix-Labs/lytix-go/storage/types"
)

// API is the subset of the S3 client the adapter uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Client stores objects in S3.
type Client struct {
	api     API
	config  config.S3Config
	logger  observability.Logger
	metrics observability.Metrics
}

var _ types.ObjectStorage = (*Client)(nil)

// NewClient builds a client from cfg using the default AWS credential chain
// unless static keys are configured.
func NewClient(cfg config.StorageConfig, logger observability.Logger, metrics observability.Metrics) (*Client, error) {
	awsCfg, err := buildAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewClientWithAPI(api, cfg.S3, logger, metrics), nil
}

// NewClientWithAPI builds a client around an existing API implementation.
func NewClientWithAPI(api API, cfg config.S3Config, logger observability.Logger, metrics observability.Metrics) *Client {
	return &Client{api: api, config: cfg, logger: logger, metrics: metrics}
}

// Bucket returns the configured bucket.
func (c *Client) Bucket() string {
	return c.config.Bucket
}

func (c *Client) bucket(b string) string {
	if b == "" {
		return c.config.Bucket
	}
	return b
}

// Put uploads reader. Content length is taken from metadata when set.
func (c *Client) Put(ctx context.Context, bucket, key string, reader io.Reader, metadata types.ObjectMetadata) error {
	bucket = c.bucket(bucket)

	start := time.Now()
	c.metrics.StartOperation("s3.put")
	defer func() {
		c.metrics.EndOperation("s3.put")
		c.metrics.RecordDuration("s3.put", time.Since(start).Seconds())
	}()

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   reader,
	}
	if metadata.ContentType != "" {
		input.ContentType = aws.String(metadata.ContentType)
	}
	if metadata.ContentLength > 0 {
		input.ContentLength = aws.Int64(metadata.ContentLength)
	}
	if metadata.CacheControl != "" {
		input.CacheControl = aws.String(metadata.CacheControl)
	}
	if len(metadata.UserMetadata) > 0 {
		input.Metadata = metadata.UserMetadata
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		c.metrics.RecordError("s3.put", "put_failed")
		c.logger.Error(ctx, "failed to put object", err, observability.Fields{
			"bucket": bucket,
			"key":    key,
		})
		return fmt.Errorf("failed to put object: %w", err)
	}

	c.metrics.RecordSuccess("s3.put")
	if metadata.ContentLength > 0 {
		c.metrics.RecordPayloadSize("s3.put", metadata.ContentLength)
	}
	c.logger.Debug(ctx, "object stored successfully", observability.Fields{
		"bucket": bucket,
		"key":    key,
	})
	return nil
}

// Exists checks for key with a HEAD request.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// EnsureBucket creates bucket unless a HEAD finds it.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	bucket = c.bucket(bucket)

	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if !isNotFoundError(err) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	c.logger.Info(ctx, "bucket does not exist, attempting to create", observability.Fields{
		"bucket": bucket,
	})

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if c.config.Region != "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.config.Region),
		}
	}

	if _, err := c.api.CreateBucket(ctx, input); err != nil {
		var exists *s3types.BucketAlreadyExists
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &exists) || errors.As(err, &owned) {
			return nil
		}
		c.logger.Error(ctx, "failed to create bucket", err, observability.Fields{
			"bucket": bucket,
		})
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ObjectURL returns the virtual-hosted style URL for AWS, or a path-style
// URL under the custom endpoint.
func (c *Client) ObjectURL(bucket, key string) string {
	bucket = c.bucket(bucket)
	escaped := (&url.URL{Path: key}).EscapedPath()

	if c.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.config.Endpoint, "/"), bucket, escaped)
	}
	region := c.config.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, escaped)
}

func buildAWSConfig(cfg config.StorageConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.S3.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.S3.Region))
	}
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
		))
	}
	if cfg.Timeout > 0 {
		optFns = append(optFns, awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(cfg.Timeout)))
	}

	return awsconfig.LoadDefaultConfig(context.Background(), optFns...)
}

func isNotFoundError(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	var nsb *s3types.NoSuchBucket
	return errors.As(err, &nsk) || errors.As(err, &nf) || errors.As(err, &nsb)
}
