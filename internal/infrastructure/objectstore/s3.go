package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

// S3 uploads backups to a bucket on any S3-compatible service
type S3 struct {
	client   s3iface.S3API
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
}

var _ repository.ObjectStore = (*S3)(nil)

// NewS3 builds a client from configuration. Static credentials are used when
// an access key is set, otherwise the SDK's default chain applies.
func NewS3(cfg config.S3Config) (*S3, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return NewS3WithClient(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
}

// NewS3WithClient wraps an existing client
func NewS3WithClient(client s3iface.S3API, bucket, prefix string) *S3 {
	return &S3{
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

func (s *S3) Name() string { return "s3" }

// Put streams body to the bucket using multipart upload for large backups
func (s *S3) Put(ctx context.Context, key string, body io.Reader) (string, error) {
	objectKey := path.Join(s.prefix, key)
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	return out.Location, nil
}

// Ping checks the bucket exists and is accessible
func (s *S3) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not reachable: %w", s.bucket, err)
	}
	return nil
}

// New returns the destination selected by the backup configuration
func New(cfg config.BackupConfig) (repository.ObjectStore, error) {
	switch cfg.Target {
	case "s3":
		return NewS3(cfg.S3)
	case "local", "":
		return NewLocal(cfg.Dir)
	default:
		return nil, fmt.Errorf("unsupported backup target %q", cfg.Target)
	}
}
