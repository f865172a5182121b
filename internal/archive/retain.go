package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Retainer keeps a copy of every successfully imported archive.
type Retainer interface {
	Retain(ctx context.Context, groupCode string, r io.Reader, size int64) (string, error)
}

var _ Retainer = (*NopRetainer)(nil)

type NopRetainer struct{}

func (NopRetainer) Retain(ctx context.Context, groupCode string, r io.Reader, size int64) (string, error) {
	return "", nil
}

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

var _ Retainer = (*S3Retainer)(nil)

type S3Retainer struct {
	client *s3.Client
	bucket string
}

func NewS3Retainer(ctx context.Context, opts S3Options) (*S3Retainer, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Retainer{client: client, bucket: opts.Bucket}, nil
}

func archiveKey(groupCode string, at time.Time) string {
	if groupCode == "" {
		groupCode = "_"
	}
	return fmt.Sprintf("manuals/%s/%04d/%02d/%02d/%s.zip", groupCode, at.Year(), at.Month(), at.Day(), uuid.New())
}

func (s *S3Retainer) Retain(ctx context.Context, groupCode string, r io.Reader, size int64) (string, error) {
	key := archiveKey(groupCode, time.Now().UTC())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/zip"),
	})
	if err != nil {
		return "", err
	}

	return key, nil
}
