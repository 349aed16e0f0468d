package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store uploads objects and mints presigned GET URLs. When the bucket is
// public-read, Upload returns the canonical object URL directly.
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucket     string
	region     string
	publicRead bool
}

func NewS3Store(ctx context.Context, region, bucket string, publicRead bool) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucket:     bucket,
		region:     region,
		publicRead: publicRead,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	if s.publicRead {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, url.PathEscape(key)), nil
	}
	return "", nil
}

func (s *S3Store) PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	p := s3.NewPresignClient(s.client)
	req, err := p.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
