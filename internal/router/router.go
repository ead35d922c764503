// Package router 配置HTTP路由
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/handler"
	"github.com/zapsync/zapsync/internal/middleware"
	fileservice "github.com/zapsync/zapsync/internal/service/file"
	"github.com/zapsync/zapsync/internal/service/moderation"
	"github.com/zapsync/zapsync/internal/service/objectstore"
	"github.com/zapsync/zapsync/internal/service/pipeline"
	"gorm.io/gorm"
)

// Router 路由配置
type Router struct {
	engine *gin.Engine
	db     *gorm.DB
}

// NewRouter 创建路由实例并装配所有服务
func NewRouter(db *gorm.DB, store objectstore.Store, cfg *config.Config) *Router {
	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	// 初始化服务
	classifier := moderation.NewClassifier(cfg.Moderation)
	uploadPipeline := pipeline.NewPipeline(db, store, classifier, cfg.File, cfg.Storage.KeyPrefix, cfg.Moderation.ExcerptLimit)
	fileService := fileservice.NewFileService(db)

	// 初始化处理器
	uploadHandler := handler.NewUploadHandler(uploadPipeline)
	fileHandler := handler.NewFileHandler(fileService)

	// 使用中间件
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())

	// 配置CORS
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// 健康检查
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Service is running",
		})
	})

	// API路由组，全部要求请求方身份
	api := engine.Group("/api/v1")
	api.Use(middleware.Identity())
	{
		files := api.Group("/files")
		{
			files.POST("/upload", uploadHandler.UploadFile)
			files.GET("", fileHandler.ListFiles)
			files.GET("/:id", fileHandler.GetFile)
		}

		folders := api.Group("/folders")
		{
			folders.POST("/:folderId/files", uploadHandler.UploadBatch)
		}
	}

	return &Router{
		engine: engine,
		db:     db,
	}
}

// Engine 返回gin引擎实例
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
