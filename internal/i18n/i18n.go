// Package i18n 提供国际化支持
// 负责管理应用程序的语言包和翻译功能
package i18n

import (
	"sync"

	"github.com/go-playground/locales/en_US"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/zapsync/zapsync/internal/logger"
)

// 支持的语言
const (
	LangZhCN = "zh-CN"
	LangEnUS = "en-US"
)

var (
	instance *I18n
	once     sync.Once

	// 语言包存储
	translations = map[string]map[string]string{
		LangEnUS: {
			"success":               "Success",
			"internal_server_error": "Internal Server Error",
			"invalid_params":        "Invalid Parameters",
			"unauthorized":          "Unauthorized",
			"forbidden":             "Forbidden",
			"not_found":             "Resource Not Found",
			"service_unavailable":   "Service Unavailable",

			"empty_file_name":        "File name is required",
			"disallowed_extension":   "Potentially dangerous file type detected",
			"unsupported_extension":  "File type is not supported",
			"suspected_non_academic": "Suspected non-academic image content",
			"file_size_too_large":    "File size exceeds the allowed limit",
			"too_many_files":         "Too many files in one request",

			"profanity_rejected":      "File contains inappropriate language",
			"malware_pattern_rejected": "File contains suspicious patterns",

			"storage_upload_failed":          "Failed to store file",
			"storage_delete_failed":          "Failed to delete stored file",
			"storage_provider_not_supported": "Storage provider is not supported",

			"record_create_failed": "Failed to record uploaded file",
			"folder_not_found":     "Folder not found or you do not have permission",
			"file_not_found":       "File not found",
			"database_query":       "Database query error",

			"unknown_error": "Unknown Error",
		},
		LangZhCN: {
			"success":               "成功",
			"internal_server_error": "服务器内部错误",
			"invalid_params":        "参数错误",
			"unauthorized":          "未授权",
			"forbidden":             "禁止访问",
			"not_found":             "资源未找到",
			"service_unavailable":   "服务不可用",

			"empty_file_name":        "文件名不能为空",
			"disallowed_extension":   "检测到潜在危险的文件类型",
			"unsupported_extension":  "不支持的文件类型",
			"suspected_non_academic": "疑似非学术图片内容",
			"file_size_too_large":    "文件大小超出限制",
			"too_many_files":         "单次请求文件数量过多",

			"profanity_rejected":      "文件包含不当语言",
			"malware_pattern_rejected": "文件包含可疑内容特征",

			"storage_upload_failed":          "文件存储失败",
			"storage_delete_failed":          "存储文件删除失败",
			"storage_provider_not_supported": "存储提供商不支持",

			"record_create_failed": "文件记录保存失败",
			"folder_not_found":     "文件夹不存在或无权限访问",
			"file_not_found":       "文件未找到",
			"database_query":       "数据库查询错误",

			"unknown_error": "未知错误",
		},
	}
)

// I18n 国际化管理器
type I18n struct {
	translators map[string]ut.Translator
	defaultLang string
}

// GetInstance 获取I18n单例
func GetInstance() *I18n {
	once.Do(func() {
		instance = &I18n{
			translators: make(map[string]ut.Translator),
			defaultLang: LangEnUS,
		}
		instance.initTranslators()
	})
	return instance
}

// initTranslators 初始化翻译器
func (i *I18n) initTranslators() {
	zhCN := zh.New()
	enUS := en_US.New()
	uni := ut.New(enUS, enUS, zhCN)

	langMappings := map[string]string{
		LangZhCN: "zh",
		LangEnUS: "en_US",
	}

	for ourLang, localeLang := range langMappings {
		trans, found := uni.GetTranslator(localeLang)
		if !found {
			logger.Errorf("初始化翻译器失败: %s (locale: %s)", ourLang, localeLang)
			continue
		}
		i.translators[ourLang] = trans
	}
}

// Translate 根据键和语言获取翻译
// 未找到时回退到默认语言，仍未找到则返回键本身
func (i *I18n) Translate(key, lang string) string {
	if translation, found := translations[lang][key]; found {
		return translation
	}

	if lang != i.defaultLang {
		if translation, found := translations[i.defaultLang][key]; found {
			return translation
		}
	}

	logger.Warnf("未找到翻译: %s, 语言: %s", key, lang)
	return key
}

// SetDefaultLanguage 设置默认语言
func (i *I18n) SetDefaultLanguage(lang string) {
	i.defaultLang = lang
}

// GetDefaultLanguage 获取默认语言
func (i *I18n) GetDefaultLanguage() string {
	return i.defaultLang
}

// IsSupportedLanguage 检查语言是否支持
func (i *I18n) IsSupportedLanguage(lang string) bool {
	_, exists := i.translators[lang]
	return exists
}
