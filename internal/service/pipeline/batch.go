package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zapsync/zapsync/internal/database"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"github.com/zapsync/zapsync/internal/logger"
	"gorm.io/gorm"
)

// 批量上传整体状态
const (
	BatchAllSucceeded   = "all_succeeded"
	BatchPartialSuccess = "partial_success"
	BatchAllFailed      = "all_failed"
)

// FileFailure 批量上传中单个文件的失败条目
type FileFailure struct {
	FileName string `json:"file_name"`
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
}

// BatchResult 批量上传汇总结果
// Succeeded与Failed保持与输入相同的相对顺序
type BatchResult struct {
	Status         string                 `json:"status"`
	Message        string                 `json:"message"`
	Succeeded      []*database.FileRecord `json:"succeeded"`
	Failed         []FileFailure          `json:"failed"`
	SucceededCount int                    `json:"succeeded_count"`
	FailedCount    int                    `json:"failed_count"`
}

// batchOutcome 单文件处理结果，按输入下标写回结果切片
type batchOutcome struct {
	fileName string
	record   *database.FileRecord
	err      error
}

// UploadBatch 批量上传文件到指定文件夹
//
// 每个文件独立走完整管线，互不影响：单个文件的失败（包括panic）
// 只记入该文件的失败条目，不会中断其余文件。并发度受配置约束，
// 避免批量任务压垮外部分类服务
func (p *Pipeline) UploadBatch(ctx context.Context, ownerID string, folderID uint, requests []*UploadRequest) (*BatchResult, error) {
	// 文件夹归属校验先于任何文件处理
	var folder database.Folder
	if err := p.db.Where("id = ? AND owner_id = ?", folderID, ownerID).First(&folder).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewByCode(apperrors.ErrFolderNotFound)
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, apperrors.GetErrorMessage(apperrors.ErrDatabaseQuery), err)
	}

	concurrency := p.batchConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	if concurrency > len(requests) {
		concurrency = len(requests)
	}

	jobs := make(chan int)
	outcomes := make([]batchOutcome, len(requests))
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = p.processOne(ctx, requests[idx], folderID)
			}
		}()
	}

	for i := range requests {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return summarize(outcomes), nil
}

// processOne 处理批量中的单个文件，panic被隔离为该文件的失败
func (p *Pipeline) processOne(ctx context.Context, req *UploadRequest, folderID uint) (outcome batchOutcome) {
	outcome.fileName = req.FileName

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"file_name": req.FileName,
				"panic":     fmt.Sprintf("%v", r),
			}).Error("文件处理发生panic，已隔离")
			outcome.record = nil
			outcome.err = apperrors.New(apperrors.ErrInternalServer, apperrors.GetErrorMessage(apperrors.ErrInternalServer))
		}
	}()

	req.FolderID = &folderID
	record, err := p.ProcessUpload(ctx, req)
	outcome.record = record
	outcome.err = err
	return outcome
}

// summarize 按输入顺序汇总批量结果并归类整体状态
func summarize(outcomes []batchOutcome) *BatchResult {
	result := &BatchResult{
		Succeeded: make([]*database.FileRecord, 0, len(outcomes)),
		Failed:    make([]FileFailure, 0),
	}

	for _, o := range outcomes {
		if o.err != nil {
			failure := FileFailure{FileName: o.fileName, Reason: o.err.Error()}
			if appErr, ok := apperrors.GetAppError(o.err); ok {
				failure.Code = int(appErr.Code)
				failure.Reason = appErr.Message
				if appErr.Details != "" {
					failure.Reason = fmt.Sprintf("%s: %s", appErr.Message, appErr.Details)
				}
			}
			result.Failed = append(result.Failed, failure)
			continue
		}
		result.Succeeded = append(result.Succeeded, o.record)
	}

	result.SucceededCount = len(result.Succeeded)
	result.FailedCount = len(result.Failed)

	switch {
	case result.FailedCount == 0:
		result.Status = BatchAllSucceeded
		result.Message = "All files uploaded successfully"
	case result.SucceededCount == 0:
		result.Status = BatchAllFailed
		result.Message = "All files failed to upload"
	default:
		result.Status = BatchPartialSuccess
		result.Message = "Some files failed to upload"
	}

	return result
}
