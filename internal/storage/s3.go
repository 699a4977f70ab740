package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gocloud.dev/blob/s3blob"
)

// S3Config holds connection details for an S3-compatible store with a
// custom endpoint (R2, MinIO, Wasabi).
type S3Config struct {
	Endpoint    string
	Region      string
	Bucket      string
	AccessKeyID string
	Secret      string
}

// OpenS3 opens a bucket on an S3-compatible endpoint using static
// credentials and path-style addressing.
func OpenS3(ctx context.Context, cfg S3Config) (*Store, error) {
	awsCfg := aws.Config{
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.Secret, ""),
		BaseEndpoint: aws.String(cfg.Endpoint),
		Region:       cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	b, err := s3blob.OpenBucketV2(ctx, client, cfg.Bucket, nil)
	if err != nil {
		return nil, err
	}
	return &Store{bucket: b}, nil
}
