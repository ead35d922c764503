// Package objectstore 提供对象存储的统一抽象
// 上传管线通过Store接口访问对象存储，失败统一映射为存储错误
// 支持本地磁盘、阿里云OSS、七牛云Kodo、腾讯云COS和MinIO五种提供商
package objectstore

import (
	"context"
	"io"

	"github.com/zapsync/zapsync/config"
	apperrors "github.com/zapsync/zapsync/internal/errors"
)

// PutResult 对象写入结果
type PutResult struct {
	// Locator 对象存储中的定位键，元数据记录引用它
	Locator string `json:"locator"`
	// PublicURL 对象的外部访问URL
	PublicURL string `json:"public_url"`
}

// Store 对象存储接口
// 无状态的请求/响应依赖，实现内部不得持有除连接池外的共享可变状态
type Store interface {
	// Put 上传对象
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*PutResult, error)

	// Delete 删除对象
	Delete(ctx context.Context, locator string) error

	// Exists 检查对象是否存在
	Exists(ctx context.Context, locator string) (bool, error)
}

// NewStore 根据配置创建对象存储实例
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalStore(cfg.Local)
	case "aliyun":
		return NewAliyunStore(cfg.Cloud)
	case "qiniu":
		return NewQiniuStore(cfg.Cloud)
	case "tencent":
		return NewTencentStore(cfg.Cloud)
	case "minio":
		return NewMinIOStore(cfg.MinIO)
	default:
		return nil, apperrors.NewByCode(apperrors.ErrStorageProviderNotSupported).WithDetails(cfg.Provider)
	}
}
