package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectGetter is the subset of the S3 client used by S3.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 reads a CSV object from a bucket.
type S3 struct {
	client ObjectGetter
	bucket string
	key    string
}

// NewS3 loads the default AWS config chain for region and returns a source
// for bucket/key.
func NewS3(ctx context.Context, bucket, key, region string) (*S3, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config for s3 source: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(cfg), bucket, key), nil
}

// NewS3WithClient builds a source around an existing client.
func NewS3WithClient(client ObjectGetter, bucket, key string) *S3 {
	return &S3{client: client, bucket: bucket, key: key}
}

func (s *S3) Location() string { return "s3://" + s.bucket + "/" + s.key }

func (s *S3) Fetch(ctx context.Context) (string, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return "", fmt.Errorf("s3 GetObject %s: %w", s.Location(), ErrNotFound)
		}
		return "", fmt.Errorf("s3 GetObject %s: %w", s.Location(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCSVBytes))
	if err != nil {
		return "", fmt.Errorf("read s3 object %s: %w", s.Location(), err)
	}
	return string(body), nil
}
