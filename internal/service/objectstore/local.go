package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zapsync/zapsync/config"
)

// LocalStore 本地磁盘对象存储
// 开发和测试环境的默认实现，对象键直接映射为相对路径
type LocalStore struct {
	basePath  string // 存储根目录
	urlPrefix string // 访问URL前缀
}

// NewLocalStore 创建本地存储实例
func NewLocalStore(cfg config.LocalStorageConfig) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStore{
		basePath:  cfg.BasePath,
		urlPrefix: strings.TrimSuffix(cfg.URLPrefix, "/"),
	}, nil
}

// Put 保存对象到本地磁盘
func (s *LocalStore) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*PutResult, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(objectKey))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &PutResult{
		Locator:   objectKey,
		PublicURL: fmt.Sprintf("%s/%s", s.urlPrefix, objectKey),
	}, nil
}

// Delete 删除本地对象，对象不存在时视为成功
func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(locator))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists 检查本地对象是否存在
func (s *LocalStore) Exists(ctx context.Context, locator string) (bool, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(locator))
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
