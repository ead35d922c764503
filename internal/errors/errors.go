// Package errors 提供应用程序统一的错误类型和错误码
// 错误码按子系统分段：通用1000段、上传校验2000段、内容审核3000段、
// 对象存储4000段、元数据持久化5000段
package errors

import (
	"fmt"

	"github.com/zapsync/zapsync/internal/i18n"
)

// ErrorCode 错误码类型
type ErrorCode int

// 定义错误码常量
const (
	// 通用错误码 (1000-1999)
	ErrSuccess            ErrorCode = 0    // 成功
	ErrInternalServer     ErrorCode = 1000 // 服务器内部错误
	ErrInvalidParams      ErrorCode = 1001 // 参数错误
	ErrUnauthorized       ErrorCode = 1002 // 未授权
	ErrForbidden          ErrorCode = 1003 // 禁止访问
	ErrNotFound           ErrorCode = 1004 // 资源未找到
	ErrServiceUnavailable ErrorCode = 1005 // 服务不可用

	// 上传校验错误码 (2000-2999)，调用方修正输入后可重试
	ErrEmptyFileName        ErrorCode = 2000 // 文件名为空
	ErrDisallowedExtension  ErrorCode = 2001 // 扩展名在黑名单中
	ErrUnsupportedExtension ErrorCode = 2002 // 扩展名不在白名单中
	ErrSuspectedNonAcademic ErrorCode = 2003 // 疑似非学术图片内容
	ErrFileSizeTooLarge     ErrorCode = 2004 // 文件大小超限
	ErrTooManyFiles         ErrorCode = 2005 // 单次请求文件数超限

	// 内容审核错误码 (3000-3999)，对该文件终态，不重试
	ErrProfanityRejected      ErrorCode = 3000 // 包含不当语言
	ErrMalwarePatternRejected ErrorCode = 3001 // 命中恶意内容特征

	// 对象存储错误码 (4000-4999)
	ErrStorageUploadFailed         ErrorCode = 4000 // 对象存储写入失败
	ErrStorageDeleteFailed         ErrorCode = 4001 // 对象存储删除失败
	ErrStorageProviderNotSupported ErrorCode = 4002 // 存储提供商不支持

	// 元数据持久化错误码 (5000-5999)
	ErrRecordCreateFailed ErrorCode = 5000 // 元数据写入失败（对象已存储，产生孤儿对象）
	ErrFolderNotFound     ErrorCode = 5001 // 文件夹不存在或无权限
	ErrFileNotFound       ErrorCode = 5002 // 文件未找到
	ErrDatabaseQuery      ErrorCode = 5003 // 数据库查询错误
)

// AppError 应用错误结构体
type AppError struct {
	// 错误码
	Code ErrorCode `json:"code"`
	// 错误消息
	Message string `json:"message"`
	// 详细错误信息
	Details string `json:"details,omitempty"`
	// 原始错误
	OriginalError error `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// WithDetails 添加详细错误信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// IsValidation 是否为上传校验错误
func (e *AppError) IsValidation() bool {
	return e.Code >= 2000 && e.Code < 3000
}

// IsModerationRejection 是否为内容审核拒绝
func (e *AppError) IsModerationRejection() bool {
	return e.Code >= 3000 && e.Code < 4000
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewByCode 根据错误码创建应用错误，消息取自i18n语言包
func NewByCode(code ErrorCode) *AppError {
	return &AppError{
		Code:    code,
		Message: GetErrorMessage(code),
	}
}

// Wrap 包装原始错误
func Wrap(code ErrorCode, message string, err error) *AppError {
	appErr := &AppError{
		Code:          code,
		Message:       message,
		OriginalError: err,
	}
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// GetAppError 从错误中提取应用错误
func GetAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}

// 错误码到i18n键的映射
var errorCodeToKeyMap = map[ErrorCode]string{
	ErrSuccess:            "success",
	ErrInternalServer:     "internal_server_error",
	ErrInvalidParams:      "invalid_params",
	ErrUnauthorized:       "unauthorized",
	ErrForbidden:          "forbidden",
	ErrNotFound:           "not_found",
	ErrServiceUnavailable: "service_unavailable",

	ErrEmptyFileName:        "empty_file_name",
	ErrDisallowedExtension:  "disallowed_extension",
	ErrUnsupportedExtension: "unsupported_extension",
	ErrSuspectedNonAcademic: "suspected_non_academic",
	ErrFileSizeTooLarge:     "file_size_too_large",
	ErrTooManyFiles:         "too_many_files",

	ErrProfanityRejected:      "profanity_rejected",
	ErrMalwarePatternRejected: "malware_pattern_rejected",

	ErrStorageUploadFailed:         "storage_upload_failed",
	ErrStorageDeleteFailed:         "storage_delete_failed",
	ErrStorageProviderNotSupported: "storage_provider_not_supported",

	ErrRecordCreateFailed: "record_create_failed",
	ErrFolderNotFound:     "folder_not_found",
	ErrFileNotFound:       "file_not_found",
	ErrDatabaseQuery:      "database_query",
}

// GetErrorMessage 根据错误码获取错误消息（使用默认语言）
func GetErrorMessage(code ErrorCode) string {
	return GetErrorMessageWithLang(code, i18n.GetInstance().GetDefaultLanguage())
}

// GetErrorMessageWithLang 根据错误码和语言获取错误消息
func GetErrorMessageWithLang(code ErrorCode, lang string) string {
	key, exists := errorCodeToKeyMap[code]
	if !exists {
		key = "unknown_error"
	}
	return i18n.GetInstance().Translate(key, lang)
}
