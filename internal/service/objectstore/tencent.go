// 本文件实现了腾讯云COS对象存储的适配
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tencentyun/cos-go-sdk-v5"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/logger"
)

// TencentStore 腾讯云COS对象存储实现
type TencentStore struct {
	client    *cos.Client
	bucketURL string
}

// NewTencentStore 创建腾讯云COS存储实例
func NewTencentStore(cfg config.CloudStorageConfig) (*TencentStore, error) {
	// 构建存储桶URL
	bucketURL := fmt.Sprintf("https://%s.cos.%s.myqcloud.com", cfg.Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		bucketURL = cfg.Endpoint
	}

	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bucket URL: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		},
	})

	logger.Infof("[腾讯云COS] 存储实例初始化成功, 存储桶URL: %s", bucketURL)

	return &TencentStore{
		client:    client,
		bucketURL: strings.TrimSuffix(bucketURL, "/"),
	}, nil
}

// Put 上传对象到腾讯云COS
func (s *TencentStore) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*PutResult, error) {
	options := &cos.ObjectPutOptions{}
	if contentType != "" {
		options.ObjectPutHeaderOptions = &cos.ObjectPutHeaderOptions{
			ContentType: contentType,
		}
	}

	if _, err := s.client.Object.Put(ctx, objectKey, reader, options); err != nil {
		return nil, fmt.Errorf("failed to upload to tencent cos: %w", err)
	}

	return &PutResult{
		Locator:   objectKey,
		PublicURL: fmt.Sprintf("%s/%s", s.bucketURL, objectKey),
	}, nil
}

// Delete 删除腾讯云COS对象
func (s *TencentStore) Delete(ctx context.Context, locator string) error {
	if _, err := s.client.Object.Delete(ctx, locator); err != nil {
		return fmt.Errorf("failed to delete from tencent cos: %w", err)
	}
	return nil
}

// Exists 检查腾讯云COS对象是否存在
func (s *TencentStore) Exists(ctx context.Context, locator string) (bool, error) {
	_, err := s.client.Object.Head(ctx, locator, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence in tencent cos: %w", err)
	}
	return true, nil
}
