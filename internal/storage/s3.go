package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/starford/almanac/internal/apperr"
)

// S3Config selects an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Secure    bool
	Prefix    string
}

// S3 implements Provider on an S3-compatible object store.
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ Provider = (*S3)(nil)

// NewS3 connects to the endpoint and creates the bucket when it is missing.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: s3 client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: s3 bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: s3 make bucket: %w", err)
		}
	}
	return &S3{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3) key(name string) (string, error) {
	clean, err := SafeName(name)
	if err != nil {
		return "", err
	}
	return s.prefix + clean, nil
}

func (s *S3) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (Object, error) {
	key, err := s.key(name)
	if err != nil {
		return Object{}, err
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return Object{}, fmt.Errorf("storage: s3 put %s: %w", name, err)
	}
	return Object{Name: name, Size: info.Size, ContentType: contentType, ModTime: info.LastModified}, nil
}

func (s *S3) Get(ctx context.Context, name string) (io.ReadCloser, Object, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, Object{}, err
	}
	// GetObject is lazy; Stat surfaces a missing key.
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, s.mapErr(name, err)
	}
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, Object{}, s.mapErr(name, err)
	}
	return obj, Object{Name: name, Size: st.Size, ContentType: st.ContentType, ModTime: st.LastModified}, nil
}

func (s *S3) Delete(ctx context.Context, name string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return s.mapErr(name, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: s3 delete %s: %w", name, err)
	}
	return nil
}

func (s *S3) List(ctx context.Context) ([]Object, error) {
	out := []Object{}
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("storage: s3 list: %w", info.Err)
		}
		out = append(out, Object{
			Name:        info.Key[len(s.prefix):],
			Size:        info.Size,
			ContentType: info.ContentType,
			ModTime:     info.LastModified,
		})
	}
	return out, nil
}

func (s *S3) mapErr(name string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("attachment %s: %w", name, apperr.ErrNotFound)
	}
	return fmt.Errorf("storage: s3 %s: %w", name, err)
}
