// 本文件实现了阿里云OSS（Object Storage Service）的对象存储适配
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/logger"
)

// AliyunStore 阿里云OSS对象存储实现
type AliyunStore struct {
	client *oss.Client              // 阿里云OSS客户端实例
	bucket *oss.Bucket              // OSS存储桶实例
	cfg    config.CloudStorageConfig // 存储配置信息
}

// NewAliyunStore 创建阿里云OSS存储实例
// 根据配置信息初始化阿里云OSS客户端和存储桶连接
func NewAliyunStore(cfg config.CloudStorageConfig) (*AliyunStore, error) {
	// 构建endpoint
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://oss-%s.aliyuncs.com", cfg.Region)
	}

	client, err := oss.New(endpoint, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun oss client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", cfg.Bucket, err)
	}

	logger.Infof("[阿里云OSS] 存储实例初始化成功, 区域: %s, 存储桶: %s", cfg.Region, cfg.Bucket)

	return &AliyunStore{
		client: client,
		bucket: bucket,
		cfg:    cfg,
	}, nil
}

// Put 上传对象到阿里云OSS
func (s *AliyunStore) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*PutResult, error) {
	options := []oss.Option{}
	if contentType != "" {
		options = append(options, oss.ContentType(contentType))
	}

	if err := s.bucket.PutObject(objectKey, reader, options...); err != nil {
		return nil, fmt.Errorf("failed to upload to aliyun oss: %w", err)
	}

	return &PutResult{
		Locator:   objectKey,
		PublicURL: s.publicURL(objectKey),
	}, nil
}

// Delete 删除阿里云OSS对象
func (s *AliyunStore) Delete(ctx context.Context, locator string) error {
	if err := s.bucket.DeleteObject(locator); err != nil {
		return fmt.Errorf("failed to delete from aliyun oss: %w", err)
	}
	return nil
}

// Exists 检查阿里云OSS对象是否存在
func (s *AliyunStore) Exists(ctx context.Context, locator string) (bool, error) {
	exists, err := s.bucket.IsObjectExist(locator)
	if err != nil {
		return false, fmt.Errorf("failed to check object existence in aliyun oss: %w", err)
	}
	return exists, nil
}

// publicURL 生成对象的外部访问URL
func (s *AliyunStore) publicURL(objectKey string) string {
	if s.cfg.Endpoint != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(s.cfg.Endpoint, "https://"), "http://")
		return fmt.Sprintf("https://%s.%s/%s", s.cfg.Bucket, host, objectKey)
	}
	return fmt.Sprintf("https://%s.oss-%s.aliyuncs.com/%s", s.cfg.Bucket, s.cfg.Region, objectKey)
}
