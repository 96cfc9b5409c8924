package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mindmorass/clipstack/internal/clipboard"
	"github.com/mindmorass/clipstack/internal/storage"
)

// S3ObjectKey is the object key below the configured prefix
const S3ObjectKey = DirName + "/" + CurrentFile

// s3API is the subset of *s3.Client the backend uses
type s3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 keeps the register in an S3 object
type S3 struct {
	bucket string
	prefix string
	region string
	client s3API
}

// NewS3 creates an S3 backend
func NewS3(bucket, prefix, region string) *S3 {
	return &S3{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		region: region,
	}
}

// ParseS3Location splits "s3://bucket/prefix" (scheme optional)
func ParseS3Location(location string) (bucket, prefix string, err error) {
	location = strings.TrimPrefix(location, "s3://")
	bucket, prefix, _ = strings.Cut(location, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid S3 location %q: bucket name required", location)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// Type returns TypeS3
func (b *S3) Type() Type {
	return TypeS3
}

// Location returns s3://bucket/prefix
func (b *S3) Location() string {
	if b.bucket == "" {
		return ""
	}
	if b.prefix != "" {
		return fmt.Sprintf("s3://%s/%s", b.bucket, b.prefix)
	}
	return "s3://" + b.bucket
}

func (b *S3) objectKey() string {
	if b.prefix != "" {
		return b.prefix + "/" + S3ObjectKey
	}
	return S3ObjectKey
}

// Init loads AWS credentials from the default chain and checks bucket access
func (b *S3) Init(ctx context.Context) error {
	if b.bucket == "" {
		return ErrNotConfigured
	}

	if b.client == nil {
		var opts []func(*config.LoadOptions) error
		if b.region != "" {
			opts = append(opts, config.WithRegion(b.region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		b.client = s3.NewFromConfig(cfg)
	}

	if _, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)}); err != nil {
		return fmt.Errorf("access bucket %s: %w", b.bucket, err)
	}
	return nil
}

// Close is a no-op
func (b *S3) Close() error {
	return nil
}

// Write uploads the record, replacing the previous one
func (b *S3) Write(ctx context.Context, content *clipboard.Content) error {
	if b.client == nil {
		return ErrNotConfigured
	}

	data, err := storage.Encode(content)
	if err != nil {
		return fmt.Errorf("encode register: %w", err)
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.objectKey()),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("S3 put: %w", err)
	}
	return nil
}

// Read downloads and decodes the record
func (b *S3) Read(ctx context.Context) (*clipboard.Content, error) {
	if b.client == nil {
		return nil, ErrNotConfigured
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey()),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("S3 get: %w", err)
	}
	defer out.Body.Close()

	content, err := storage.Read(out.Body)
	if err != nil {
		return nil, fmt.Errorf("decode register: %w", err)
	}
	return content, nil
}

// ModTime returns the object's LastModified
func (b *S3) ModTime(ctx context.Context) (time.Time, error) {
	if b.client == nil {
		return time.Time{}, ErrNotConfigured
	}

	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey()),
	})
	if err != nil {
		if isS3NotFound(err) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("S3 head: %w", err)
	}
	if out.LastModified == nil {
		return time.Time{}, ErrNotFound
	}
	return *out.LastModified, nil
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
