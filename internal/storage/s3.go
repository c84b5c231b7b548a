package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the part of the S3 client the storage uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner signs download links.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage keeps uploaded application documents in a bucket
type S3Storage struct {
	client     ObjectAPI
	presigner  Presigner
	bucketName string
	linkTTL    time.Duration
}

// NewS3Storage creates a storage for bucketName. presigner may be nil, in which case
// no download links are produced.
func NewS3Storage(client ObjectAPI, presigner Presigner, bucketName string) *S3Storage {
	return &S3Storage{
		client:     client,
		presigner:  presigner,
		bucketName: bucketName,
		linkTTL:    15 * time.Minute,
	}
}

// ApplicationKey is where a field's document for an application is stored.
func ApplicationKey(applicationID, fieldName, fileName string) string {
	field := strings.ReplaceAll(strings.TrimSpace(fieldName), "/", "-")
	return path.Join("applications", applicationID, field, path.Base(fileName))
}

// UploadFile uploads data under key
// Returns the storage key on success
func (s *S3Storage) UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return key, nil
}

// DeleteFile removes a file from the bucket
func (s *S3Storage) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// DownloadURL returns a short lived link to key.
func (s *S3Storage) DownloadURL(ctx context.Context, key string) (string, error) {
	if s.presigner == nil {
		return "", fmt.Errorf("download links are not configured")
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.linkTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}

	return req.URL, nil
}
