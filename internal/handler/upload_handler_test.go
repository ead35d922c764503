package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/database"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"github.com/zapsync/zapsync/internal/middleware"
	"github.com/zapsync/zapsync/internal/response"
	fileservice "github.com/zapsync/zapsync/internal/service/file"
	"github.com/zapsync/zapsync/internal/service/moderation"
	"github.com/zapsync/zapsync/internal/service/objectstore"
	"github.com/zapsync/zapsync/internal/service/pipeline"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&database.FileRecord{},
		&database.Folder{},
		&database.FolderFile{},
		&database.OrphanedObject{},
	))

	store, err := objectstore.NewLocalStore(config.LocalStorageConfig{
		BasePath:  t.TempDir(),
		URLPrefix: "/files",
	})
	require.NoError(t, err)

	classifySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"should_reject": false})
	}))
	t.Cleanup(classifySrv.Close)

	fileCfg := config.FileConfig{
		MaxFileSize:      100 * 1024 * 1024,
		DeniedExtensions: []string{".exe", ".bat", ".sh", ".jar", ".dll"},
		BannedImageNames: []string{"meme", "funny", "dank"},
		BatchConcurrency: 2,
	}
	classifier := moderation.NewClassifierWithClient(moderation.NewClient(classifySrv.URL, time.Second), nil, 200)
	p := pipeline.NewPipeline(db, store, classifier, fileCfg, "zapsync", 5000)

	uploadHandler := NewUploadHandler(p)
	fileHandler := NewFileHandler(fileservice.NewFileService(db))

	engine := gin.New()
	engine.Use(middleware.Recovery())
	api := engine.Group("/api/v1")
	api.Use(middleware.Identity())
	api.POST("/files/upload", uploadHandler.UploadFile)
	api.GET("/files", fileHandler.ListFiles)
	api.GET("/files/:id", fileHandler.GetFile)
	api.POST("/folders/:folderId/files", uploadHandler.UploadBatch)

	return &testEnv{engine: engine, db: db}
}

// multipartBody 构造multipart请求体
func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, env *testEnv, userID, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", map[string]string{fileName: content})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func TestUploadFileEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := doUpload(t, env, "user-1", "notes.txt", "plain academic notes")
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := parseResponse(t, w)
	assert.Zero(t, resp.Code)

	var count int64
	require.NoError(t, env.db.Model(&database.FileRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUploadFileRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	w := doUpload(t, env, "", "notes.txt", "content")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadFileDeniedExtension(t *testing.T) {
	env := newTestEnv(t)

	w := doUpload(t, env, "user-1", "virus.exe", "binary")
	resp := parseResponse(t, w)
	assert.Equal(t, int(apperrors.ErrDisallowedExtension), resp.Code)

	var count int64
	require.NoError(t, env.db.Model(&database.FileRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadFileSingleFileOnly(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, "file", map[string]string{
		"a.txt": "first",
		"b.txt": "second",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, int(apperrors.ErrTooManyFiles), resp.Code)
}

func TestUploadBatchEndpoint(t *testing.T) {
	env := newTestEnv(t)

	folder := &database.Folder{OwnerID: "user-1", Name: "papers"}
	require.NoError(t, env.db.Create(folder).Error)

	body, contentType := multipartBody(t, "files", map[string]string{
		"a.txt": "first document",
		"b.exe": "not allowed",
	})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/folders/%d/files", folder.ID), body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, "Some files failed to upload", resp.Message)
}

func TestUploadBatchFolderNotFound(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, "files", map[string]string{"a.txt": "content"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/folders/999/files", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAndGetFiles(t *testing.T) {
	env := newTestEnv(t)

	w := doUpload(t, env, "user-1", "notes.txt", "some text")
	require.Equal(t, http.StatusCreated, w.Code)

	// 列表
	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.Header.Set("X-User-ID", "user-1")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var record database.FileRecord
	require.NoError(t, env.db.First(&record).Error)

	// 单个文件
	req = httptest.NewRequest(http.MethodGet, "/api/v1/files/"+record.FileID, nil)
	req.Header.Set("X-User-ID", "user-1")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// 他人访问返回404
	req = httptest.NewRequest(http.MethodGet, "/api/v1/files/"+record.FileID, nil)
	req.Header.Set("X-User-ID", "user-2")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
