package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultEndpointURL = "https://s3.amazonaws.com"

// Config captures the object-store connection parameters.
type Config struct {
	// EndpointURL points at the S3-compatible service. Defaults to AWS S3.
	EndpointURL string
	Region      string
	UseSSL      bool

	// AccessKeyID and SecretAccessKey are optional; when both are empty the
	// client falls back to the environment and the shared credentials file.
	AccessKeyID     string
	SecretAccessKey string

	// Profile selects a named profile from the shared credentials file. Only
	// consulted when no static keys are set.
	Profile string
}

// S3Client implements ObjectStore using the minio-go SDK.
type S3Client struct {
	client *minio.Client
	cfg    *Config
}

// NewS3Client creates a real S3/MinIO client from config.
//
// Credential resolution mirrors the operator contract of the export command:
// static keys win when present, then a named profile from the shared
// credentials file, then the environment/shared-file chain.
func NewS3Client(cfg *Config) (*S3Client, error) {
	if cfg == nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("config is required"))
	}
	endpointURL := cfg.EndpointURL
	if endpointURL == "" {
		endpointURL = defaultEndpointURL
	}

	u, err := url.Parse(endpointURL)
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("invalid endpoint URL: %w", err))
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = endpointURL
	}
	useSSL := cfg.UseSSL
	if u.Scheme == "https" {
		useSSL = true
	}

	creds := resolveCredentials(cfg)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("failed to create s3 client: %w", err))
	}

	return &S3Client{client: client, cfg: cfg}, nil
}

func resolveCredentials(cfg *Config) *credentials.Credentials {
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		return credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Profile != "" {
		return credentials.NewFileAWSCredentials("", cfg.Profile)
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{},
	})
}

func (s *S3Client) Ping(ctx context.Context) error {
	_, err := s.client.ListBuckets(ctx)
	if err != nil {
		return classifyError(err)
	}
	return nil
}

func (s *S3Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if bucket == "" {
		return false, nil
	}
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, classifyError(err)
	}
	return exists, nil
}

func (s *S3Client) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	if bucket == "" {
		return wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket is required"))
	}
	if key == "" {
		return wrapError(CodeUploadFailed, false, fmt.Errorf("object key is required"))
	}
	_, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return classifyError(err)
	}
	return nil
}

func (s *S3Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyError(err)
	}
	return data, nil
}

func (s *S3Client) ListPrefix(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	objectCh := s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range objectCh {
		if obj.Err != nil {
			return nil, classifyError(obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// classifyError converts minio-go errors to the structured Error type.
func classifyError(err error) *Error {
	if err == nil {
		return nil
	}

	if minioErr, ok := err.(minio.ErrorResponse); ok {
		switch minioErr.Code {
		case "NoSuchBucket":
			return wrapError(CodeBucketNotFound, false, err)
		case "NoSuchKey":
			return wrapError(CodeObjectNotFound, false, err)
		case "AccessDenied":
			return wrapError(CodePermissionDenied, false, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return wrapError(CodeAuthInvalid, false, err)
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "no such bucket"):
		return wrapError(CodeBucketNotFound, false, err)
	case strings.Contains(errStr, "no such key") || strings.Contains(errStr, "does not exist"):
		return wrapError(CodeObjectNotFound, false, err)
	case strings.Contains(errStr, "access denied") || strings.Contains(errStr, "permission"):
		return wrapError(CodePermissionDenied, false, err)
	case strings.Contains(errStr, "invalid access key") ||
		strings.Contains(errStr, "signature") ||
		strings.Contains(errStr, "credential") ||
		strings.Contains(errStr, "authentication"):
		return wrapError(CodeAuthInvalid, false, err)
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return wrapError(CodeTimeout, true, err)
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "unreachable") ||
		strings.Contains(errStr, "no such host"):
		return wrapError(CodeEndpointUnreachable, true, err)
	}

	return wrapError(CodeUploadFailed, true, err)
}
