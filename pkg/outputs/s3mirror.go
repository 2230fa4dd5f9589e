package outputs

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// MirrorConfig configures the optional S3 artifact mirror.
//
// Authentication follows the AWS SDK v2 default chain unless explicit
// credentials are provided. For S3-compatible stores (MinIO, Wasabi,
// DigitalOcean Spaces) set Endpoint and typically ForcePathStyle.
type MirrorConfig struct {
	// Bucket is the destination bucket (required).
	Bucket string

	// Region is the AWS region. Leave empty to let the SDK resolve it
	// from the environment or shared config.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores.
	Endpoint string

	// AccessKeyID and SecretAccessKey are explicit credentials. Both
	// must be set together; they take precedence over the default chain.
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle forces path-style URLs (bucket in path, not
	// subdomain). Required for most S3-compatible stores.
	ForcePathStyle bool
}

// Validate checks that required configuration is present.
func (c *MirrorConfig) Validate() error {
	if c.Bucket == "" {
		return errors.New("s3 mirror: bucket name is required")
	}
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return errors.New("s3 mirror: access key ID and secret access key must be provided together")
	}
	return nil
}

// S3Mirror uploads placed artifacts to an S3 bucket, keyed by their
// root-relative path. Mirroring is strictly best-effort: upload failures
// are logged and reported as a degradation, never as a clone failure.
type S3Mirror struct {
	client *s3.Client
	bucket string
	log    *zap.Logger
}

// NewS3Mirror builds a mirror from the given configuration.
func NewS3Mirror(ctx context.Context, cfg MirrorConfig, log *zap.Logger) (*S3Mirror, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = cfg.ForcePathStyle
		},
	}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &S3Mirror{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		log:    log,
	}, nil
}

// Upload stores the artifact at path under key. Errors are returned so
// the caller can record a degradation; the caller must not fail the
// clone because of them.
func (m *S3Mirror) Upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			m.log.Warn("artifact mirror rejected upload",
				zap.String("bucket", m.bucket),
				zap.String("key", key),
				zap.String("code", apiErr.ErrorCode()))
		}
		return fmt.Errorf("put object %s: %w", key, err)
	}

	m.log.Debug("artifact mirrored",
		zap.String("bucket", m.bucket),
		zap.String("key", key))
	return nil
}
