package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/database"
	"github.com/zapsync/zapsync/internal/i18n"
	"github.com/zapsync/zapsync/internal/logger"
	"github.com/zapsync/zapsync/internal/router"
	"github.com/zapsync/zapsync/internal/service/objectstore"
	"github.com/zapsync/zapsync/internal/service/reconciler"
	"golang.org/x/net/http2"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Init(&logger.Config{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		Output:   cfg.Log.Output,
		FilePath: cfg.Log.FilePath,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// 初始化i18n
	i18n.GetInstance()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化对象存储
	store, err := objectstore.NewStore(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize object store: %v", err)
	}

	// 初始化路由
	r := router.NewRouter(db, store, cfg)

	// 启动孤儿对象回收服务
	orphanReconciler := reconciler.NewReconciler(db, store, cfg.Reconciler)
	reconcilerCtx, cancelReconciler := context.WithCancel(context.Background())
	if cfg.Reconciler.Enabled {
		if err := orphanReconciler.Start(reconcilerCtx); err != nil {
			logger.Errorf("Failed to start reconciler: %v", err)
		}
	}

	// 创建HTTPS服务器（仅支持HTTPS和HTTP/2）
	if !cfg.Server.EnableHTTPS {
		logger.Fatalf("HTTPS必须启用，HTTP支持已被移除")
	}

	httpsSrv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.HTTPSPort),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		TLSConfig: &tls.Config{
			NextProtos: []string{"h2", "http/1.1"},
		},
	}

	// 如果启用HTTP/2，配置HTTP/2支持
	if cfg.Server.EnableHTTP2 {
		if err := http2.ConfigureServer(httpsSrv, &http2.Server{}); err != nil {
			logger.Fatalf("配置HTTP/2失败: %v", err)
		}
	}

	// 启动HTTPS服务器
	go func() {
		logger.Infof("HTTPS服务器启动在端口 %d (HTTP/2: %v)", cfg.Server.HTTPSPort, cfg.Server.EnableHTTP2)
		if err := httpsSrv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTPS服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务器...")

	// 停止回收服务
	cancelReconciler()
	if err := orphanReconciler.Stop(); err != nil {
		logger.Errorf("Error stopping reconciler: %v", err)
	}

	// 优雅关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpsSrv.Shutdown(ctx); err != nil {
		logger.Fatalf("HTTPS服务器强制关闭: %v", err)
	}

	logger.Info("服务器已退出")
}
