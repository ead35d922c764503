// 本文件实现了MinIO对象存储的适配，兼容任意S3协议的自建存储
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/logger"
)

// MinIOStore MinIO对象存储实现
type MinIOStore struct {
	client     *minio.Client
	bucketName string
	urlPrefix  string // 用于生成访问URL
}

// NewMinIOStore 创建MinIO存储实例
// 存储桶不存在时自动创建
func NewMinIOStore(cfg config.MinIOStorageConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	urlPrefix := cfg.URLPrefix
	if urlPrefix == "" {
		urlPrefix = fmt.Sprintf("%s/%s", cfg.Endpoint, cfg.Bucket)
	}

	logger.Infof("[MinIO] 存储实例初始化成功, 端点: %s, 存储桶: %s", cfg.Endpoint, cfg.Bucket)

	return &MinIOStore{
		client:     client,
		bucketName: cfg.Bucket,
		urlPrefix:  strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

// Put 上传对象到MinIO
func (s *MinIOStore) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*PutResult, error) {
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	return &PutResult{
		Locator:   objectKey,
		PublicURL: fmt.Sprintf("%s/%s", s.urlPrefix, objectKey),
	}, nil
}

// Delete 删除MinIO对象
func (s *MinIOStore) Delete(ctx context.Context, locator string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, locator, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}

// Exists 检查MinIO对象是否存在
func (s *MinIOStore) Exists(ctx context.Context, locator string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, locator, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence in MinIO: %w", err)
	}
	return true, nil
}
