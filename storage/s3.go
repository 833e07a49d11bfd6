package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Storage stores objects through the AWS SDK. It backs caches that live in
// a bucket the service owns, not the per-table buckets read with Client.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Storage(client *s3.Client, bucket, prefix string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// NewS3Client builds a path-style client for an S3-compatible endpoint with
// static credentials.
func NewS3Client(creds Credentials) *s3.Client {
	return s3.New(s3.Options{
		Region:       creds.Region,
		BaseEndpoint: aws.String(creds.Endpoint),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
	})
}

func (s *S3Storage) Write(ctx context.Context, filepath string, data io.Reader) error {
	fullPath := path.Join(s.prefix, filepath)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullPath),
		Body:   data,
	})
	if err != nil {
		return fmt.Errorf("putting object: %w", err)
	}

	return nil
}

func (s *S3Storage) Read(ctx context.Context, filepath string) (io.ReadCloser, error) {
	fullPath := path.Join(s.prefix, filepath)

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullPath),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("object %q: %w", fullPath, ErrNotFound)
		}
		return nil, fmt.Errorf("getting object: %w", err)
	}

	return output.Body, nil
}
