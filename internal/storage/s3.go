package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

const AvatarPrefix = "avatars"

var (
	ErrNotConfigured = errors.New("object storage is not configured")
	ErrInvalidKey    = errors.New("invalid object key")
	ErrObjectMissing = errors.New("object not found")
)

type ObjectInfo struct {
	Key          string
	ETag         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStore is the blob storage the avatar flow needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// S3Storage talks to any S3-compatible endpoint (MinIO, AWS, R2).
type S3Storage struct {
	client *minio.Client
	bucket string
}

func NewS3Storage(cfg config.S3Config) (*S3Storage, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio.New")
	}
	return &S3Storage{client: cl, bucket: cfg.Bucket}, nil
}

func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (ObjectInfo, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "private, max-age=86400",
	})
	if err != nil {
		return ObjectInfo{}, errors.Wrapf(err, "put %s", key)
	}
	return ObjectInfo{Key: key, ETag: info.ETag, Size: info.Size, ContentType: contentType, LastModified: time.Now().UTC()}, nil
}

func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, translateS3(err, key)
	}
	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, translateS3(err, key)
	}
	return obj, ObjectInfo{Key: key, ETag: st.ETag, Size: st.Size, ContentType: st.ContentType, LastModified: st.LastModified}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	return translateS3(s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}), key)
}

func translateS3(err error, key string) error {
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectMissing
	}
	return errors.Wrapf(err, "object %s", key)
}

// NewAvatarKey returns a fresh key under the user's avatar folder.
func NewAvatarKey(userID string) string {
	return fmt.Sprintf("%s/%s/%s.jpg", AvatarPrefix, userID, uuid.NewString())
}

// CleanAvatarKey validates a key taken from a request path and returns it
// with the avatar prefix applied.
func CleanAvatarKey(raw string) (string, error) {
	key := strings.Trim(strings.TrimSpace(raw), "/")
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, "\\?#") {
		return "", ErrInvalidKey
	}
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	if !strings.HasPrefix(key, AvatarPrefix+"/") {
		key = AvatarPrefix + "/" + key
	}
	return key, nil
}
