package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapsync/zapsync/internal/database"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"github.com/zapsync/zapsync/internal/service/moderation"
	"github.com/zapsync/zapsync/internal/service/objectstore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// stubStore 测试用对象存储，支持按内容注入写入失败
type stubStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failWhen func(data []byte) bool
}

func newStubStore() *stubStore {
	return &stubStore{objects: make(map[string][]byte)}
}

func (s *stubStore) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*objectstore.PutResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if s.failWhen != nil && s.failWhen(data) {
		return nil, fmt.Errorf("injected put failure")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey] = data
	return &objectstore.PutResult{
		Locator:   objectKey,
		PublicURL: "http://files.test/" + objectKey,
	}, nil
}

func (s *stubStore) Delete(ctx context.Context, locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, locator)
	return nil
}

func (s *stubStore) Exists(ctx context.Context, locator string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[locator]
	return ok, nil
}

func (s *stubStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库绑定单个连接，避免连接池拿到空库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&database.FileRecord{},
		&database.Folder{},
		&database.FolderFile{},
		&database.OrphanedObject{},
	))
	return db
}

// newCleanClassifier 返回所有词元均通过的分类器
func newCleanClassifier(t *testing.T) (*moderation.Classifier, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"should_reject": false,
			"confidence":    0,
		})
	}))
	return moderation.NewClassifierWithClient(moderation.NewClient(srv.URL, time.Second), nil, 200), srv.Close
}

func newTestPipeline(t *testing.T, db *gorm.DB, store objectstore.Store) (*Pipeline, func()) {
	t.Helper()
	classifier, closeSrv := newCleanClassifier(t)
	cfg := testFileConfig()
	cfg.BatchConcurrency = 2
	return NewPipeline(db, store, classifier, cfg, "zapsync", 5000), closeSrv
}

func TestProcessUploadAccepted(t *testing.T) {
	db := newTestDB(t)
	store := newStubStore()
	p, closeSrv := newTestPipeline(t, db, store)
	defer closeSrv()

	data := []byte(strings.Repeat("academic content ", 128)) // 约2KB
	record, err := p.ProcessUpload(context.Background(), &UploadRequest{
		OwnerID:  "user-1",
		FileName: "notes.txt",
		Size:     int64(len(data)),
		Data:     data,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, record.FileID)
	assert.Equal(t, "user-1", record.OwnerID)
	assert.Equal(t, "notes.txt", record.FileName)
	assert.Equal(t, "txt", record.FileType)
	assert.Equal(t, int64(len(data)), record.FileSize)
	assert.Equal(t, "clean", record.Verdict)

	// 对象与记录一一对应
	assert.Equal(t, 1, store.count())
	var count int64
	require.NoError(t, db.Model(&database.FileRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProcessUploadPrefilterRejection(t *testing.T) {
	db := newTestDB(t)
	store := newStubStore()
	p, closeSrv := newTestPipeline(t, db, store)
	defer closeSrv()

	_, err := p.ProcessUpload(context.Background(), &UploadRequest{
		OwnerID:  "user-1",
		FileName: "virus.exe",
		Size:     10,
		Data:     []byte("x"),
	})
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrDisallowedExtension, appErr.Code)

	// 被拒绝的文件不产生任何持久化痕迹
	assert.Equal(t, 0, store.count())
	var count int64
	require.NoError(t, db.Model(&database.FileRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProcessUploadModerationRejection(t *testing.T) {
	db := newTestDB(t)
	store := newStubStore()
	p, closeSrv := newTestPipeline(t, db, store)
	defer closeSrv()

	_, err := p.ProcessUpload(context.Background(), &UploadRequest{
		OwnerID:  "user-1",
		FileName: "payload.txt",
		Size:     30,
		Data:     []byte("var x = eval(dangerous_code)"),
	})
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrMalwarePatternRejected, appErr.Code)
	assert.True(t, appErr.IsModerationRejection())

	assert.Equal(t, 0, store.count())
}

func TestProcessUploadStorageFailureLeavesNoRecord(t *testing.T) {
	db := newTestDB(t)
	store := newStubStore()
	store.failWhen = func(data []byte) bool { return true }
	p, closeSrv := newTestPipeline(t, db, store)
	defer closeSrv()

	_, err := p.ProcessUpload(context.Background(), &UploadRequest{
		OwnerID:  "user-1",
		FileName: "doc.txt",
		Size:     5,
		Data:     []byte("hello"),
	})
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrStorageUploadFailed, appErr.Code)

	// 存储失败时既无记录也无孤儿
	var records, orphans int64
	require.NoError(t, db.Model(&database.FileRecord{}).Count(&records).Error)
	require.NoError(t, db.Model(&database.OrphanedObject{}).Count(&orphans).Error)
	assert.Zero(t, records)
	assert.Zero(t, orphans)
}

func TestProcessUploadRecordFailureRegistersOrphan(t *testing.T) {
	store := newStubStore()

	// 缺少file_records表的会话使记录写入必然失败
	brokenDB := newTestDB(t)
	require.NoError(t, brokenDB.Migrator().DropTable(&database.FileRecord{}))

	classifier, closeSrv := newCleanClassifier(t)
	defer closeSrv()
	broken := NewPipeline(brokenDB, store, classifier, testFileConfig(), "zapsync", 5000)

	_, err := broken.ProcessUpload(context.Background(), &UploadRequest{
		OwnerID:  "user-2",
		FileName: "doc.txt",
		Size:     5,
		Data:     []byte("hello"),
	})
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrRecordCreateFailed, appErr.Code)

	// 对象已写入，孤儿登记存在
	assert.Equal(t, 1, store.count())
	var orphans []database.OrphanedObject
	require.NoError(t, brokenDB.Find(&orphans).Error)
	require.Len(t, orphans, 1)
	assert.Equal(t, "user-2", orphans[0].OwnerID)
	assert.Equal(t, "doc.txt", orphans[0].FileName)
	assert.Nil(t, orphans[0].ResolvedAt)
}

func TestProcessUploadFolderLink(t *testing.T) {
	db := newTestDB(t)
	store := newStubStore()
	p, closeSrv := newTestPipeline(t, db, store)
	defer closeSrv()

	folder := &database.Folder{OwnerID: "user-1", Name: "papers"}
	require.NoError(t, db.Create(folder).Error)

	record, err := p.ProcessUpload(context.Background(), &UploadRequest{
		OwnerID:  "user-1",
		FileName: "paper.txt",
		Size:     4,
		Data:     []byte("text"),
		FolderID: &folder.ID,
	})
	require.NoError(t, err)

	var link database.FolderFile
	require.NoError(t, db.Where("folder_id = ? AND file_record_id = ?", folder.ID, record.ID).First(&link).Error)
}
