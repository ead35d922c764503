package reconciler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/database"
	"github.com/zapsync/zapsync/internal/service/objectstore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type memoryStore struct {
	objects map[string][]byte
}

func (s *memoryStore) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*objectstore.PutResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	s.objects[objectKey] = data
	return &objectstore.PutResult{Locator: objectKey}, nil
}

func (s *memoryStore) Delete(ctx context.Context, locator string) error {
	delete(s.objects, locator)
	return nil
}

func (s *memoryStore) Exists(ctx context.Context, locator string) (bool, error) {
	_, ok := s.objects[locator]
	return ok, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&database.OrphanedObject{}))
	return db
}

func newTestReconciler(db *gorm.DB, store objectstore.Store) *Reconciler {
	return NewReconciler(db, store, config.ReconcilerConfig{
		IntervalSeconds:    300,
		GracePeriodSeconds: 3600,
	})
}

func TestSweepDeletesExpiredOrphans(t *testing.T) {
	db := newTestDB(t)
	store := &memoryStore{objects: map[string][]byte{"zapsync/user_1/stale": []byte("data")}}
	r := newTestReconciler(db, store)

	orphan := &database.OrphanedObject{
		Locator:  "zapsync/user_1/stale",
		OwnerID:  "user-1",
		FileName: "stale.txt",
		Reason:   "record create failed",
	}
	require.NoError(t, db.Create(orphan).Error)
	// 回拨创建时间使其超过宽限期
	require.NoError(t, db.Model(orphan).Update("created_at", time.Now().Add(-2*time.Hour)).Error)

	r.Sweep(context.Background())

	// 对象已删除且标记为已解决
	exists, err := store.Exists(context.Background(), orphan.Locator)
	require.NoError(t, err)
	assert.False(t, exists)

	var resolved database.OrphanedObject
	require.NoError(t, db.First(&resolved, orphan.ID).Error)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestSweepRespectsGracePeriod(t *testing.T) {
	db := newTestDB(t)
	store := &memoryStore{objects: map[string][]byte{"zapsync/user_1/fresh": []byte("data")}}
	r := newTestReconciler(db, store)

	orphan := &database.OrphanedObject{
		Locator: "zapsync/user_1/fresh",
		OwnerID: "user-1",
		Reason:  "record create failed",
	}
	require.NoError(t, db.Create(orphan).Error)

	r.Sweep(context.Background())

	// 宽限期内的孤儿不受影响
	exists, err := store.Exists(context.Background(), orphan.Locator)
	require.NoError(t, err)
	assert.True(t, exists)

	var pending database.OrphanedObject
	require.NoError(t, db.First(&pending, orphan.ID).Error)
	assert.Nil(t, pending.ResolvedAt)
}

func TestSweepHandlesMissingObject(t *testing.T) {
	db := newTestDB(t)
	store := &memoryStore{objects: map[string][]byte{}}
	r := newTestReconciler(db, store)

	// 对象已不在存储中，仍应标记为已解决
	orphan := &database.OrphanedObject{
		Locator: "zapsync/user_1/gone",
		OwnerID: "user-1",
		Reason:  "record create failed",
	}
	require.NoError(t, db.Create(orphan).Error)
	require.NoError(t, db.Model(orphan).Update("created_at", time.Now().Add(-2*time.Hour)).Error)

	r.Sweep(context.Background())

	var resolved database.OrphanedObject
	require.NoError(t, db.First(&resolved, orphan.ID).Error)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestStartStop(t *testing.T) {
	db := newTestDB(t)
	store := &memoryStore{objects: map[string][]byte{}}
	r := newTestReconciler(db, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, r.Start(ctx))
	assert.Error(t, r.Start(ctx))

	require.NoError(t, r.Stop())
	require.NoError(t, r.Stop())
}
