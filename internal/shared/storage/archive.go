package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive 上传文件归档到 MinIO
type Archive struct {
	client *minio.Client
	bucket string
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewArchive 创建客户端并确保 bucket 存在
func NewArchive(ctx context.Context, opts Options) (*Archive, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	return &Archive{client: client, bucket: opts.Bucket}, nil
}

// Put 以 <kind>/<yyyy/mm/dd>/<uuid>_<name> 存储，返回对象名
func (a *Archive) Put(ctx context.Context, kind, filename string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := ObjectName(kind, filename, time.Now())
	_, err := a.client.PutObject(ctx, a.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return objectName, nil
}

// ObjectName 生成归档对象名
func ObjectName(kind, filename string, at time.Time) string {
	return path.Join(kind, at.Format("2006/01/02"), uuid.New().String()[:8]+"_"+path.Base(filename))
}
