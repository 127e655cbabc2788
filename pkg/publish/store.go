// Package publish uploads composed update images to an artifact store so
// devices in the field can fetch them.
//
// Stores are addressed by URI:
//
//	file:///srv/firmware        local or mounted directory
//	s3://bucket/prefix?region=eu-central-1&endpoint=https://minio:9000
//
// S3 credentials come from the URI user info when present, otherwise from
// the standard AWS environment and shared config.
package publish

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
)

const defaultRegion = "us-east-1"

// Store writes objects under slash-separated keys
type Store interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
	Location() string
}

// StoreFor creates a store from a location URI
func StoreFor(location string) (Store, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "invalid update_store %q", location).
			WithDetail("key", "update_store")
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return newFileStore(u)
	case "s3":
		return newS3Store(u)
	default:
		return nil, errors.Newf(errors.ErrConfigValid, "unsupported update_store scheme %q", u.Scheme).
			WithDetail("key", "update_store")
	}
}

// FileStore keeps objects in a directory tree
type FileStore struct {
	baseDir string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{baseDir: dir}
}

func newFileStore(u *url.URL) (*FileStore, error) {
	p := u.Path
	if u.Host != "" {
		p = u.Host + "/" + strings.TrimPrefix(p, "/")
	}
	if p == "" {
		return nil, errors.Newf(errors.ErrConfigValid, "empty path in %s", u.String()).
			WithDetail("key", "update_store")
	}
	return NewFileStore(filepath.FromSlash(p)), nil
}

// Location implements Store
func (s *FileStore) Location() string {
	return "file://" + filepath.ToSlash(s.baseDir)
}

// Put implements Store
func (s *FileStore) Put(_ context.Context, key string, body io.ReadSeeker, _ string) (string, error) {
	dst := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if rel, err := filepath.Rel(s.baseDir, dst); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrPublish, "key %q escapes %s", key, s.baseDir)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrPublish, "cannot create %s", filepath.Dir(dst))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrPublish, "cannot create %s", dst)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, errors.ErrPublish, "cannot write %s", dst)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, errors.ErrPublish, "cannot write %s", dst)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, errors.ErrPublish, "cannot chmod %s", dst)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, errors.ErrPublish, "cannot replace %s", dst)
	}
	return dst, nil
}

// S3Store keeps objects in an S3 or S3-compatible bucket
type S3Store struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3Store wraps an existing client
func NewS3Store(client s3iface.S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func newS3Store(u *url.URL) (*S3Store, error) {
	logger := logging.GetLogger("publish")

	if u.Host == "" {
		return nil, errors.Newf(errors.ErrConfigValid, "missing bucket in %s", u.Redacted()).
			WithDetail("key", "update_store")
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = defaultRegion
	}
	cfg := aws.NewConfig().WithRegion(region)
	if endpoint := query.Get("endpoint"); endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	if u.User != nil {
		secret, _ := u.User.Password()
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(u.User.Username(), secret, ""))
		logger.Debug().Msg("Using credentials embedded in update_store")
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPublish, "failed to create AWS session")
	}
	return NewS3Store(s3.New(sess), u.Host, u.Path), nil
}

// Location implements Store
func (s *S3Store) Location() string {
	if s.prefix == "" {
		return "s3://" + s.bucket
	}
	return "s3://" + s.bucket + "/" + s.prefix
}

// Put implements Store
func (s *S3Store) Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	objectKey := path.Join(s.prefix, key)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrPublish, "failed to upload s3://%s/%s", s.bucket, objectKey)
	}
	return "s3://" + s.bucket + "/" + objectKey, nil
}

// bytesBody adapts a byte slice for Put
func bytesBody(b []byte) io.ReadSeeker {
	return bytes.NewReader(b)
}
