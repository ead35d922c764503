// Package reconciler 实现孤儿对象回收服务
// 上传管线在"对象已存储但元数据写入失败"时登记孤儿对象，
// 本服务周期性扫描并在宽限期后从对象存储删除这些对象
package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/database"
	"github.com/zapsync/zapsync/internal/logger"
	"github.com/zapsync/zapsync/internal/service/objectstore"
	"gorm.io/gorm"
)

// Reconciler 孤儿对象回收服务
type Reconciler struct {
	db          *gorm.DB
	store       objectstore.Store
	interval    time.Duration // 扫描间隔
	gracePeriod time.Duration // 孤儿对象保留宽限期
	stopChan    chan struct{}
	wg          sync.WaitGroup
	isRunning   bool
	mu          sync.Mutex
}

// NewReconciler 创建孤儿对象回收服务
func NewReconciler(db *gorm.DB, store objectstore.Store, cfg config.ReconcilerConfig) *Reconciler {
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	gracePeriod := time.Duration(cfg.GracePeriodSeconds) * time.Second
	if gracePeriod <= 0 {
		gracePeriod = time.Hour
	}

	return &Reconciler{
		db:          db,
		store:       store,
		interval:    interval,
		gracePeriod: gracePeriod,
		stopChan:    make(chan struct{}),
	}
}

// Start 启动回收协程
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("reconciler is already running")
	}
	r.isRunning = true

	r.wg.Add(1)
	go r.run(ctx)

	logger.Infof("孤儿对象回收服务已启动，扫描间隔=%s，宽限期=%s", r.interval, r.gracePeriod)
	return nil
}

// Stop 停止回收服务并等待当前扫描完成
func (r *Reconciler) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return nil
	}

	close(r.stopChan)
	r.wg.Wait()
	r.isRunning = false

	logger.Info("孤儿对象回收服务已停止")
	return nil
}

// run 周期性扫描待处理的孤儿对象
func (r *Reconciler) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep 执行一轮回收
// 只处理超过宽限期且未解决的孤儿对象；删除失败的条目保留在
// 待处理状态，下一轮继续尝试
func (r *Reconciler) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.gracePeriod)

	var orphans []database.OrphanedObject
	err := r.db.Where("resolved_at IS NULL AND created_at < ?", cutoff).
		Limit(100).
		Find(&orphans).Error
	if err != nil {
		logger.Errorf("孤儿对象扫描失败: %v", err)
		return
	}
	if len(orphans) == 0 {
		return
	}

	logger.Infof("发现%d个待清理的孤儿对象", len(orphans))

	for i := range orphans {
		orphan := &orphans[i]
		if err := r.resolve(ctx, orphan); err != nil {
			logger.WithFields(logrus.Fields{
				"orphan_id": orphan.ID,
				"locator":   orphan.Locator,
				"error":     err.Error(),
			}).Warn("孤儿对象清理失败，下轮重试")
		}
	}
}

// resolve 删除单个孤儿对象并标记已解决
// 对象在存储中已不存在时同样视为已解决
func (r *Reconciler) resolve(ctx context.Context, orphan *database.OrphanedObject) error {
	exists, err := r.store.Exists(ctx, orphan.Locator)
	if err != nil {
		return fmt.Errorf("check object existence: %w", err)
	}

	if exists {
		if err := r.store.Delete(ctx, orphan.Locator); err != nil {
			return fmt.Errorf("delete object: %w", err)
		}
	}

	now := time.Now()
	if err := r.db.Model(orphan).Update("resolved_at", &now).Error; err != nil {
		return fmt.Errorf("mark orphan resolved: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"orphan_id": orphan.ID,
		"locator":   orphan.Locator,
		"owner":     orphan.OwnerID,
	}).Info("孤儿对象已清理")
	return nil
}
