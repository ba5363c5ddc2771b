// Package objectstore provides the S3-compatible upload target for export
// artifacts: a minio-go backed client for real buckets and a filesystem
// double for tests.
package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ObjectStore abstracts the minimal bucket operations the export runner needs.
type ObjectStore interface {
	Ping(ctx context.Context) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	ListPrefix(ctx context.Context, bucket, prefix string) ([]string, error)
}

// LocalStore persists objects on disk to mimic S3 behaviour for tests.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local object store rooted at dir.
func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = filepath.Join(os.TempDir(), "regexport-store")
	}
	_ = os.MkdirAll(root, 0o755)
	return &LocalStore{root: root}
}

func (s *LocalStore) bucketPath(bucket string) string {
	return filepath.Join(s.root, bucket)
}

func (s *LocalStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(s.root, 0o755)
}

func (s *LocalStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(s.bucketPath(bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// EnsureBucket creates the bucket directory if missing. Test helper only;
// the export runner never provisions buckets.
func (s *LocalStore) EnsureBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bucket == "" {
		return wrapError(CodeBucketNotFound, false, os.ErrNotExist)
	}
	return os.MkdirAll(s.bucketPath(bucket), 0o755)
}

func (s *LocalStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bucket == "" {
		return wrapError(CodeBucketNotFound, false, os.ErrNotExist)
	}
	exists, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if !exists {
		return wrapError(CodeBucketNotFound, false, os.ErrNotExist)
	}

	fullPath := filepath.Join(s.bucketPath(bucket), filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return wrapError(CodePermissionDenied, false, err)
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return wrapError(CodePermissionDenied, false, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return wrapError(CodeUploadFailed, true, err)
	}
	_ = size
	return nil
}

func (s *LocalStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath := filepath.Join(s.bucketPath(bucket), filepath.FromSlash(key))
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapError(CodeObjectNotFound, false, err)
		}
		return nil, err
	}
	return data, nil
}

func (s *LocalStore) ListPrefix(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := s.bucketPath(bucket)
	var keys []string
	err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
