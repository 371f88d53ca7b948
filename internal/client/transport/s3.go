package transport

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/akulikov/vaultsync/internal/client/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3-compatible transport. Endpoint may point at
// MinIO or any other S3-compatible store; empty means stock AWS.
type S3Config struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	UploadTimeout time.Duration
}

// S3Transport uploads payloads with PutObject.
type S3Transport struct {
	client  *s3.Client
	bucket  string
	timeout time.Duration
}

func NewS3Transport(ctx context.Context, cfg S3Config) (*S3Transport, error) {

	awscfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awscfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO and friends do not speak virtual-host addressing
			o.UsePathStyle = true
		}
	})

	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &S3Transport{client: client, bucket: cfg.Bucket, timeout: timeout}, nil
}

func (t *S3Transport) Upload(ctx context.Context, e *models.QueueEntry) error {

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	key := storageKey(e)

	_, err := t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(e.Payload),
		ContentType:   aws.String(e.Metadata.MimeType),
		ContentLength: aws.Int64(int64(len(e.Payload))),
	})
	if err != nil {
		if IsNetworkError(err) {
			return fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
		}
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

func (t *S3Transport) Ping(ctx context.Context) error {
	_, err := t.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(t.bucket)})
	if err != nil {
		return fmt.Errorf("%w: head bucket: %v", ErrUnavailable, err)
	}
	return nil
}

// storageKey shards objects by enqueue date so buckets stay browsable.
func storageKey(e *models.QueueEntry) string {
	d := e.Metadata.EnqueuedAt
	return fmt.Sprintf("uploads/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), e.ID)
}
