// 本文件实现了七牛云Kodo对象存储的适配
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	"github.com/qiniu/go-sdk/v7/storage"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/logger"
)

// QiniuStore 七牛云Kodo对象存储实现
type QiniuStore struct {
	mac          *qbox.Mac       // 七牛云认证凭证
	bucketName   string          // 存储桶名称
	bucketDomain string          // 存储桶域名
	region       *storage.Region // 存储区域信息
}

// NewQiniuStore 创建七牛云Kodo存储实例
// 根据配置信息初始化认证凭证、区域和域名设置
func NewQiniuStore(cfg config.CloudStorageConfig) (*QiniuStore, error) {
	mac := qbox.NewMac(cfg.AccessKey, cfg.SecretKey)

	region, err := storage.GetRegion(cfg.AccessKey, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get qiniu region: %w", err)
	}

	// 构建域名
	bucketDomain := cfg.Endpoint
	if bucketDomain == "" {
		bucketDomain = fmt.Sprintf("%s.%s", cfg.Bucket, region.RsHost)
	}

	logger.Infof("[七牛云Kodo] 存储实例初始化成功, 存储桶: %s, 域名: %s", cfg.Bucket, bucketDomain)

	return &QiniuStore{
		mac:          mac,
		bucketName:   cfg.Bucket,
		bucketDomain: bucketDomain,
		region:       region,
	}, nil
}

// Put 上传对象到七牛云Kodo
func (s *QiniuStore) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*PutResult, error) {
	// 创建上传策略和令牌
	putPolicy := storage.PutPolicy{
		Scope: fmt.Sprintf("%s:%s", s.bucketName, objectKey),
	}
	upToken := putPolicy.UploadToken(s.mac)

	cfg := storage.Config{
		Region:        s.region,
		UseHTTPS:      true,
		UseCdnDomains: false,
	}

	formUploader := storage.NewFormUploader(&cfg)
	ret := storage.PutRet{}

	putExtra := storage.PutExtra{}
	if contentType != "" {
		putExtra.MimeType = contentType
	}

	if err := formUploader.Put(ctx, &ret, upToken, objectKey, reader, size, &putExtra); err != nil {
		return nil, fmt.Errorf("failed to upload to qiniu kodo: %w", err)
	}

	return &PutResult{
		Locator:   objectKey,
		PublicURL: storage.MakePublicURL(s.bucketDomain, objectKey),
	}, nil
}

// Delete 删除七牛云Kodo对象
func (s *QiniuStore) Delete(ctx context.Context, locator string) error {
	bucketManager := storage.NewBucketManager(s.mac, &storage.Config{
		Region: s.region,
	})

	if err := bucketManager.Delete(s.bucketName, locator); err != nil {
		return fmt.Errorf("failed to delete from qiniu kodo: %w", err)
	}
	return nil
}

// Exists 检查七牛云Kodo对象是否存在
func (s *QiniuStore) Exists(ctx context.Context, locator string) (bool, error) {
	bucketManager := storage.NewBucketManager(s.mac, &storage.Config{
		Region: s.region,
	})

	_, err := bucketManager.Stat(s.bucketName, locator)
	if err != nil {
		if strings.Contains(err.Error(), "no such file or directory") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence in qiniu kodo: %w", err)
	}
	return true, nil
}
