package s3

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/querybridge/querybridge/internal/storage"
)

type minioBucket struct {
	client *minio.Client
	name   string
}

func (b *minioBucket) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	info, err := b.client.PutObject(ctx, b.name, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return storage.ObjectInfo{}, translateError(err)
	}
	return storage.ObjectInfo{Key: info.Key, Size: info.Size, ETag: info.ETag, LastModified: info.LastModified}, nil
}

// GetObject stats the object first because minio defers the request until
// the first read, which would hide a missing key.
func (b *minioBucket) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := b.client.GetObject(ctx, b.name, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, translateError(err)
	}
	return object, nil
}

func (b *minioBucket) StatObject(ctx context.Context, key string) (storage.ObjectInfo, error) {
	info, err := b.client.StatObject(ctx, b.name, key, minio.StatObjectOptions{})
	if err != nil {
		return storage.ObjectInfo{}, translateError(err)
	}
	return storage.ObjectInfo{Key: info.Key, Size: info.Size, ETag: info.ETag, LastModified: info.LastModified}, nil
}

func (b *minioBucket) RemoveObject(ctx context.Context, key string) error {
	return translateError(b.client.RemoveObject(ctx, b.name, key, minio.RemoveObjectOptions{}))
}

func (b *minioBucket) Exists(ctx context.Context) (bool, error) {
	exists, err := b.client.BucketExists(ctx, b.name)
	return exists, translateError(err)
}

func (b *minioBucket) Create(ctx context.Context, region string) error {
	return translateError(b.client.MakeBucket(ctx, b.name, minio.MakeBucketOptions{Region: region}))
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return storage.ErrObjectNotFound
	}
	return err
}
