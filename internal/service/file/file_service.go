// Package file 提供文件元数据的查询服务
// 上传写入由管线负责，本包只做所有者范围内的读取
package file

import (
	"github.com/zapsync/zapsync/internal/database"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"gorm.io/gorm"
)

// FileService 文件查询服务接口
type FileService interface {
	// ListFiles 分页列出指定所有者的文件
	ListFiles(ownerID string, page, pageSize int) ([]database.FileRecord, int64, error)
	// GetFile 按文件标识获取所有者的单个文件
	GetFile(ownerID, fileID string) (*database.FileRecord, error)
}

type fileService struct {
	db *gorm.DB
}

// NewFileService 创建文件查询服务
func NewFileService(db *gorm.DB) FileService {
	return &fileService{db: db}
}

// ListFiles 分页列出指定所有者的文件，按创建时间倒序
func (s *fileService) ListFiles(ownerID string, page, pageSize int) ([]database.FileRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	query := s.db.Model(&database.FileRecord{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDatabaseQuery, apperrors.GetErrorMessage(apperrors.ErrDatabaseQuery), err)
	}

	var records []database.FileRecord
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDatabaseQuery, apperrors.GetErrorMessage(apperrors.ErrDatabaseQuery), err)
	}

	return records, total, nil
}

// GetFile 按文件标识获取所有者的单个文件
// 其他所有者的文件表现为不存在，而非权限错误
func (s *fileService) GetFile(ownerID, fileID string) (*database.FileRecord, error) {
	var record database.FileRecord
	err := s.db.Where("file_id = ? AND owner_id = ?", fileID, ownerID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewByCode(apperrors.ErrFileNotFound)
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, apperrors.GetErrorMessage(apperrors.ErrDatabaseQuery), err)
	}
	return &record, nil
}
