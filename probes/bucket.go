package probes

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jonwraymond/healthwatch/health"
)

// BucketChecker is satisfied by *minio.Client.
type BucketChecker interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// MinIO checks that a bucket exists on a MinIO server.
type MinIO struct {
	component string
	bucket    string
	client    BucketChecker
}

// NewMinIO creates a probe for bucket.
func NewMinIO(component, bucket string, client BucketChecker) *MinIO {
	if component == "" {
		component = "object_storage"
	}
	return &MinIO{component: component, bucket: bucket, client: client}
}

// OpenMinIO creates a MinIO client and a probe over it.
func OpenMinIO(component, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIO, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("probes: minio client: %w", err)
	}
	return NewMinIO(component, bucket, mc), nil
}

// Name returns the component name.
func (m *MinIO) Name() string { return m.component }

// Check verifies the bucket exists.
func (m *MinIO) Check(ctx context.Context) health.CheckResult {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return health.Critical("minio unreachable", err)
	}
	if !exists {
		return health.Critical(fmt.Sprintf("bucket %s missing", m.bucket), fmt.Errorf("%w: %s", ErrBucketMissing, m.bucket))
	}
	return health.Healthy(fmt.Sprintf("bucket %s available", m.bucket))
}

// HeadBucketAPI is the subset of s3iface.S3API the probe uses.
type HeadBucketAPI interface {
	HeadBucketWithContext(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error)
}

// S3 checks that a bucket is reachable with HeadBucket.
type S3 struct {
	component string
	bucket    string
	api       HeadBucketAPI
}

// NewS3 creates a probe for bucket.
func NewS3(component, bucket string, api HeadBucketAPI) *S3 {
	if component == "" {
		component = "object_storage"
	}
	return &S3{component: component, bucket: bucket, api: api}
}

// OpenS3 creates an S3 client from the default credential chain. A
// non-empty endpoint selects an S3-compatible server with path-style
// addressing.
func OpenS3(component, region, endpoint, bucket string) (*S3, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("probes: s3 session: %w", err)
	}
	return NewS3(component, bucket, s3.New(sess)), nil
}

// Name returns the component name.
func (s *S3) Name() string { return s.component }

// Check issues HeadBucket.
func (s *S3) Check(ctx context.Context) health.CheckResult {
	if _, err := s.api.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return health.Critical(fmt.Sprintf("bucket %s unreachable", s.bucket), err)
	}
	return health.Healthy(fmt.Sprintf("bucket %s available", s.bucket))
}
