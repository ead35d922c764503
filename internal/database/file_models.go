// Package database 定义了文件相关的数据库模型
// 包含文件元数据、文件夹关联和孤儿对象等核心数据模型
package database

import (
	"time"

	"gorm.io/gorm"
)

// FileRecord 文件元数据模型
// 系统中"文件存在"的唯一事实来源：仅在对象存储写入成功后创建
type FileRecord struct {
	ID          uint           `gorm:"primarykey" json:"id"`                        // 主键ID，自增
	FileID      string         `gorm:"uniqueIndex;not null;size:36" json:"file_id"` // 文件唯一标识符（UUID格式）
	OwnerID     string         `gorm:"index;not null;size:64" json:"owner_id"`      // 文件所有者标识
	FileName    string         `gorm:"not null;size:255" json:"file_name"`          // 原始文件名称，最大255字符
	Locator     string         `gorm:"not null;size:500" json:"-"`                  // 对象存储中的定位键，不对外暴露
	PublicURL   string         `gorm:"size:500" json:"url"`                         // 对象的外部访问URL
	FileSize    int64          `gorm:"not null" json:"file_size"`                   // 文件大小，单位为字节
	FileType    string         `gorm:"not null;size:50" json:"file_type"`           // 文件格式/扩展名（如：pdf、jpg、txt等）
	Description string         `gorm:"size:1000" json:"description"`                // 文件描述
	Tags        string         `gorm:"size:500" json:"tags"`                        // 标签，逗号分隔
	Verdict     string         `gorm:"size:20" json:"verdict"`                      // 审核结论（clean、degraded_clean）
	CreatedAt   time.Time      `json:"created_at"`                                  // 记录创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                  // 记录最后更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间戳，回收站子系统使用
}

// TableName 指定FileRecord模型对应的数据库表名
func (FileRecord) TableName() string {
	return "file_records"
}

// Folder 文件夹模型
// 文件夹树的增删改由独立的文件夹子系统负责，上传管线只做归属校验
type Folder struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	OwnerID     string         `gorm:"index;not null;size:64" json:"owner_id"` // 文件夹所有者标识
	Name        string         `gorm:"not null;size:255" json:"name"`          // 文件夹名称
	Description string         `gorm:"size:1000" json:"description"`           // 文件夹描述
	ParentID    *uint          `gorm:"index" json:"parent_id"`                 // 父文件夹ID，根文件夹为空
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定Folder模型对应的数据库表名
func (Folder) TableName() string {
	return "folders"
}

// FolderFile 文件夹与文件的关联模型
// 仅在文件完整通过上传管线后创建，失败文件不产生关联
type FolderFile struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	FolderID     uint      `gorm:"index:idx_folder_file,unique;not null" json:"folder_id"` // 文件夹ID
	FileRecordID uint      `gorm:"index:idx_folder_file,unique;not null" json:"file_id"`   // 文件记录ID
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 指定FolderFile模型对应的数据库表名
func (FolderFile) TableName() string {
	return "folder_files"
}

// OrphanedObject 孤儿对象模型
// 对象存储写入成功但元数据写入失败时记录，由回收服务在宽限期后清理
type OrphanedObject struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	Locator    string     `gorm:"not null;size:500" json:"locator"`       // 对象存储中的定位键
	OwnerID    string     `gorm:"index;not null;size:64" json:"owner_id"` // 上传者标识
	FileName   string     `gorm:"size:255" json:"file_name"`              // 原始文件名称
	Reason     string     `gorm:"size:500" json:"reason"`                 // 产生孤儿的原因
	ResolvedAt *time.Time `gorm:"index" json:"resolved_at"`               // 清理完成时间，空表示待处理
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName 指定OrphanedObject模型对应的数据库表名
func (OrphanedObject) TableName() string {
	return "orphaned_objects"
}
