// Package config 提供应用程序配置管理
// 基于viper实现，支持配置文件、环境变量和默认值三级覆盖
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	File       FileConfig       `mapstructure:"file"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPSPort    int    `mapstructure:"https_port"`    // HTTPS监听端口
	ReadTimeout  int    `mapstructure:"read_timeout"`  // 读超时（秒）
	WriteTimeout int    `mapstructure:"write_timeout"` // 写超时（秒）
	EnableHTTPS  bool   `mapstructure:"enable_https"`  // 是否启用HTTPS
	EnableHTTP2  bool   `mapstructure:"enable_http2"`  // 是否启用HTTP/2
	TLSCertFile  string `mapstructure:"tls_cert_file"` // TLS证书路径
	TLSKeyFile   string `mapstructure:"tls_key_file"`  // TLS私钥路径
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // 数据库驱动（sqlite）
	DSN             string `mapstructure:"dsn"`               // 数据源名称
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // 最大打开连接数
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 连接最大生命周期（秒）
}

// FileConfig 文件上传配置
// 上传边界限制在请求入口处统一执行
type FileConfig struct {
	// MaxFileSize 单文件最大字节数
	MaxFileSize int64 `mapstructure:"max_file_size"`
	// AllowedExtensions 扩展名白名单，空表示不限制
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	// DeniedExtensions 扩展名黑名单，优先级高于白名单
	DeniedExtensions []string `mapstructure:"denied_extensions"`
	// BannedImageNames 图片文件名包含这些子串时拒绝（非学术内容启发式）
	BannedImageNames []string `mapstructure:"banned_image_names"`
	// BatchConcurrency 批量上传的并发度，限制对分类服务的压力
	BatchConcurrency int `mapstructure:"batch_concurrency"`
}

// StorageConfig 对象存储配置
type StorageConfig struct {
	// Provider 存储提供商（local、aliyun、qiniu、tencent、minio）
	Provider string `mapstructure:"provider"`
	// KeyPrefix 对象键前缀命名空间
	KeyPrefix string              `mapstructure:"key_prefix"`
	Local     LocalStorageConfig  `mapstructure:"local"`
	Cloud     CloudStorageConfig  `mapstructure:"cloud"`
	MinIO     MinIOStorageConfig  `mapstructure:"minio"`
}

// LocalStorageConfig 本地存储配置
type LocalStorageConfig struct {
	BasePath  string `mapstructure:"base_path"`  // 存储根目录
	URLPrefix string `mapstructure:"url_prefix"` // 访问URL前缀
}

// CloudStorageConfig 云存储配置（阿里云/七牛云/腾讯云共用）
type CloudStorageConfig struct {
	AccessKey string `mapstructure:"access_key"` // 访问密钥ID
	SecretKey string `mapstructure:"secret_key"` // 访问密钥Secret
	Region    string `mapstructure:"region"`     // 存储区域
	Bucket    string `mapstructure:"bucket"`     // 存储桶名称
	Endpoint  string `mapstructure:"endpoint"`   // 自定义域名，空则按区域生成
}

// MinIOStorageConfig MinIO存储配置
type MinIOStorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	URLPrefix string `mapstructure:"url_prefix"`
}

// ModerationConfig 内容审核配置
type ModerationConfig struct {
	// ServiceURL 外部分类服务地址
	ServiceURL string `mapstructure:"service_url"`
	// TimeoutSeconds 单次分类请求超时（秒）
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// MaxTokens 单次审核最多分类的词元数，限制外部调用次数
	MaxTokens int `mapstructure:"max_tokens"`
	// ExcerptLimit 审核摘录最大字节数
	ExcerptLimit int `mapstructure:"excerpt_limit"`
	// LocalWordList 本地降级词表，外部服务不可用时使用
	LocalWordList []string `mapstructure:"local_word_list"`
}

// ReconcilerConfig 孤儿对象回收配置
type ReconcilerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// IntervalSeconds 扫描间隔（秒）
	IntervalSeconds int `mapstructure:"interval_seconds"`
	// GracePeriodSeconds 孤儿对象保留宽限期（秒），超过后才会被清理
	GracePeriodSeconds int `mapstructure:"grace_period_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`     // 日志级别
	Format   string `mapstructure:"format"`    // 日志格式（json、text）
	Output   string `mapstructure:"output"`    // 输出方式（console、file、both）
	FilePath string `mapstructure:"file_path"` // 日志文件路径
}

// Load 加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	// 环境变量覆盖，如 ZAPSYNC_MODERATION_SERVICE_URL
	v.SetEnvPrefix("ZAPSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时使用默认值，其他错误直接返回
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.https_port", 8443)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.enable_https", true)
	v.SetDefault("server.enable_http2", true)
	v.SetDefault("server.tls_cert_file", "certs/server.crt")
	v.SetDefault("server.tls_key_file", "certs/server.key")

	// Database
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/zapsync.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 300)

	// File
	v.SetDefault("file.max_file_size", 100*1024*1024)
	v.SetDefault("file.allowed_extensions", []string{})
	v.SetDefault("file.denied_extensions", []string{".exe", ".bat", ".sh", ".jar", ".dll"})
	v.SetDefault("file.banned_image_names", []string{"meme", "funny", "dank"})
	v.SetDefault("file.batch_concurrency", 4)

	// Storage
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.key_prefix", "zapsync")
	v.SetDefault("storage.local.base_path", "data/files")
	v.SetDefault("storage.local.url_prefix", "/files")

	// Moderation
	v.SetDefault("moderation.service_url", "http://127.0.0.1:8000/filter/predict/")
	v.SetDefault("moderation.timeout_seconds", 5)
	v.SetDefault("moderation.max_tokens", 200)
	v.SetDefault("moderation.excerpt_limit", 5000)
	v.SetDefault("moderation.local_word_list", []string{})

	// Reconciler
	v.SetDefault("reconciler.enabled", true)
	v.SetDefault("reconciler.interval_seconds", 300)
	v.SetDefault("reconciler.grace_period_seconds", 3600)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file_path", "logs/app.log")
}
