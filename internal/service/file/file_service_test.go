package file

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapsync/zapsync/internal/database"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&database.FileRecord{}))
	return db
}

func seedRecords(t *testing.T, db *gorm.DB, ownerID string, n int) []database.FileRecord {
	t.Helper()
	records := make([]database.FileRecord, 0, n)
	for i := 0; i < n; i++ {
		record := database.FileRecord{
			FileID:   uuid.New().String(),
			OwnerID:  ownerID,
			FileName: fmt.Sprintf("file-%d.txt", i),
			Locator:  fmt.Sprintf("zapsync/%s/file-%d", ownerID, i),
			FileSize: 100,
			FileType: "txt",
			Verdict:  "clean",
		}
		require.NoError(t, db.Create(&record).Error)
		records = append(records, record)
	}
	return records
}

func TestListFilesScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewFileService(db)

	seedRecords(t, db, "user-1", 3)
	seedRecords(t, db, "user-2", 2)

	records, total, err := svc.ListFiles("user-1", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, "user-1", r.OwnerID)
	}
}

func TestListFilesPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewFileService(db)

	seedRecords(t, db, "user-1", 25)

	records, total, err := svc.ListFiles("user-1", 2, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Len(t, records, 10)

	records, _, err = svc.ListFiles("user-1", 3, 10)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestGetFile(t *testing.T) {
	db := newTestDB(t)
	svc := NewFileService(db)

	seeded := seedRecords(t, db, "user-1", 1)

	record, err := svc.GetFile("user-1", seeded[0].FileID)
	require.NoError(t, err)
	assert.Equal(t, seeded[0].FileName, record.FileName)
}

func TestGetFileNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewFileService(db)

	_, err := svc.GetFile("user-1", "does-not-exist")
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrFileNotFound, appErr.Code)
}

func TestGetFileOtherOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewFileService(db)

	seeded := seedRecords(t, db, "user-1", 1)

	// 他人的文件表现为不存在
	_, err := svc.GetFile("user-2", seeded[0].FileID)
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrFileNotFound, appErr.Code)
}
