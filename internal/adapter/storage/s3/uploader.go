// Package s3 uploads batch artifacts to an S3 compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// Options configures an Uploader.
type Options struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO or R2. Path-style
	// addressing is used whenever it is set.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	MaxAttempts     int
}

// Uploader implements domain.ArtifactStore.
type Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ domain.ArtifactStore = (*Uploader)(nil)

// New builds an uploader from opts.
func New(ctx context.Context, opts Options) (*Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("op=s3.New: %w: empty bucket", domain.ErrInvalidArgument)
	}
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("op=s3.New: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
		if opts.MaxAttempts > 0 {
			o.RetryMaxAttempts = opts.MaxAttempts
		}
	})
	return &Uploader{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

// Key returns the object key name is stored under.
func (u *Uploader) Key(name string) string {
	if u.prefix == "" {
		return name
	}
	return path.Join(strings.TrimSuffix(u.prefix, "/"), name)
}

// Put writes body under the configured prefix.
func (u *Uploader) Put(ctx context.Context, key, contentType string, body []byte) error {
	if key == "" {
		return errors.New("op=s3.Put: empty key")
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(u.Key(key)),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return &domain.NetworkError{Op: "s3.Put " + u.Key(key), Err: err}
	}
	return nil
}
