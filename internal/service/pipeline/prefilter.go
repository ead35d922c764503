// Package pipeline 实现上传摄取管线
// 单个文件依次经过：前置校验 -> 内容提取 -> 审核分类 -> 决策与持久化，
// 批量上传在此之上按文件隔离失败并汇总结果
package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/zapsync/zapsync/config"
	apperrors "github.com/zapsync/zapsync/internal/errors"
)

// 图片扩展名集合，用于文件名启发式检查
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// PreFilter 上传前置校验
// 只依据文件名、扩展名和声明大小做廉价检查，从不读取文件内容；
// 运行在任何昂贵阶段之前，误杀的代价可以接受
type PreFilter struct {
	cfg config.FileConfig
}

// NewPreFilter 创建前置校验器
func NewPreFilter(cfg config.FileConfig) *PreFilter {
	return &PreFilter{cfg: cfg}
}

// Validate 校验文件名、扩展名和声明大小
// 通过返回nil，否则返回对应的校验错误
func (f *PreFilter) Validate(fileName string, declaredSize int64) *apperrors.AppError {
	if strings.TrimSpace(fileName) == "" {
		return apperrors.NewByCode(apperrors.ErrEmptyFileName)
	}

	ext := strings.ToLower(filepath.Ext(fileName))

	// 黑名单优先于白名单：危险扩展名无条件拒绝
	for _, denied := range f.cfg.DeniedExtensions {
		if ext == strings.ToLower(denied) {
			return apperrors.NewByCode(apperrors.ErrDisallowedExtension).WithDetails(ext)
		}
	}

	if len(f.cfg.AllowedExtensions) > 0 && !f.isAllowedExtension(ext) {
		return apperrors.NewByCode(apperrors.ErrUnsupportedExtension).WithDetails(ext)
	}

	if f.cfg.MaxFileSize > 0 && declaredSize > f.cfg.MaxFileSize {
		return apperrors.NewByCode(apperrors.ErrFileSizeTooLarge)
	}

	// 图片类文件名启发式：包含禁用子串的直接拒绝
	if _, isImage := imageExtensions[ext]; isImage {
		lowerName := strings.ToLower(fileName)
		for _, banned := range f.cfg.BannedImageNames {
			if strings.Contains(lowerName, strings.ToLower(banned)) {
				return apperrors.NewByCode(apperrors.ErrSuspectedNonAcademic).WithDetails(banned)
			}
		}
	}

	return nil
}

// isAllowedExtension 检查扩展名是否在白名单中，"*"表示全部允许
func (f *PreFilter) isAllowedExtension(ext string) bool {
	for _, allowed := range f.cfg.AllowedExtensions {
		if allowed == "*" || ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
