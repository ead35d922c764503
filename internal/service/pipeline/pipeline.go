package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/database"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"github.com/zapsync/zapsync/internal/logger"
	"github.com/zapsync/zapsync/internal/service/moderation"
	"github.com/zapsync/zapsync/internal/service/objectstore"
	"gorm.io/gorm"
)

// UploadRequest 一次文件上传请求
// 载荷完整缓冲在内存中，管线结束（接受或拒绝）后即被丢弃，
// 不会以此形态持久化
type UploadRequest struct {
	OwnerID     string // 认证后的所有者标识
	FileName    string // 声明的文件名
	Size        int64  // 声明的字节大小
	Data        []byte // 原始字节载荷
	FolderID    *uint  // 目标文件夹，可选
	Description string // 文件描述，可选
}

// Pipeline 上传摄取管线
// 每个入站请求由独立的运行驱动，运行之间没有共享可变状态；
// 阶段严格按 校验->提取->审核->持久化 顺序执行
type Pipeline struct {
	db               *gorm.DB
	store            objectstore.Store
	prefilter        *PreFilter
	extractor        *Extractor
	classifier       *moderation.Classifier
	keyPrefix        string
	batchConcurrency int
}

// NewPipeline 创建上传管线
func NewPipeline(db *gorm.DB, store objectstore.Store, classifier *moderation.Classifier, fileCfg config.FileConfig, keyPrefix string, excerptLimit int) *Pipeline {
	if keyPrefix == "" {
		keyPrefix = "zapsync"
	}
	return &Pipeline{
		db:               db,
		store:            store,
		prefilter:        NewPreFilter(fileCfg),
		extractor:        NewExtractor(excerptLimit),
		classifier:       classifier,
		keyPrefix:        keyPrefix,
		batchConcurrency: fileCfg.BatchConcurrency,
	}
}

// ProcessUpload 驱动单个文件走完整个管线
// 返回创建的文件记录，或携带明确原因的类型化错误
func (p *Pipeline) ProcessUpload(ctx context.Context, req *UploadRequest) (*database.FileRecord, error) {
	// 阶段一：前置校验，纯元数据检查，不触碰字节
	if appErr := p.prefilter.Validate(req.FileName, req.Size); appErr != nil {
		return nil, appErr
	}

	// 阶段二：内容提取，解析失败等同于"无摘录可用"
	content := p.extractor.Extract(ctx, req.Data, req.FileName)

	// 阶段三：审核分类
	verdict := p.classifier.Classify(ctx, content.Excerpt)
	if verdict.Rejected() {
		return nil, rejectionError(verdict)
	}

	// 阶段四：决策与持久化
	return p.persist(ctx, req, verdict)
}

// persist 将接受的文件写入对象存储并创建元数据记录
//
// 顺序不变式：对象存储写入必须先于元数据写入成功，绝不记录一个
// 实际未存储的文件。对象写入成功而元数据写入失败时登记孤儿对象
// 交由回收服务处理，不做跨两个存储的同步两阶段提交
func (p *Pipeline) persist(ctx context.Context, req *UploadRequest, verdict moderation.Verdict) (*database.FileRecord, error) {
	ext := strings.ToLower(filepath.Ext(req.FileName))
	objectKey := p.buildObjectKey(req, ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := p.store.Put(ctx, objectKey, bytes.NewReader(req.Data), req.Size, contentType)
	if err != nil {
		logger.Errorf("对象存储写入失败: 文件=%s, 所有者=%s, 错误=%v", req.FileName, req.OwnerID, err)
		return nil, apperrors.Wrap(apperrors.ErrStorageUploadFailed, apperrors.GetErrorMessage(apperrors.ErrStorageUploadFailed), err)
	}

	record := &database.FileRecord{
		FileID:      uuid.New().String(),
		OwnerID:     req.OwnerID,
		FileName:    req.FileName,
		Locator:     result.Locator,
		PublicURL:   result.PublicURL,
		FileSize:    req.Size,
		FileType:    strings.TrimPrefix(ext, "."),
		Description: req.Description,
		Verdict:     verdict.String(),
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		// 文件夹关联只为完整走完管线的文件创建
		if req.FolderID != nil {
			link := &database.FolderFile{
				FolderID:     *req.FolderID,
				FileRecordID: record.ID,
			}
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// 对象已存储但记录失败：登记孤儿对象，保证不一致可观测
		p.recordOrphan(req, result.Locator, err)
		return nil, apperrors.Wrap(apperrors.ErrRecordCreateFailed, apperrors.GetErrorMessage(apperrors.ErrRecordCreateFailed), err)
	}

	logger.WithFields(logrus.Fields{
		"file_id": record.FileID,
		"owner":   record.OwnerID,
		"size":    record.FileSize,
		"verdict": record.Verdict,
	}).Info("文件上传完成")

	return record, nil
}

// buildObjectKey 生成所有者（及文件夹）命名空间下的对象键
func (p *Pipeline) buildObjectKey(req *UploadRequest, ext string) string {
	fileID := uuid.New().String()
	if req.FolderID != nil {
		return fmt.Sprintf("%s/user_%s/folder_%d/%s%s", p.keyPrefix, req.OwnerID, *req.FolderID, fileID, ext)
	}
	return fmt.Sprintf("%s/user_%s/%s%s", p.keyPrefix, req.OwnerID, fileID, ext)
}

// recordOrphan 登记孤儿对象供回收服务在宽限期后清理
// 登记本身失败时只能退化为日志
func (p *Pipeline) recordOrphan(req *UploadRequest, locator string, cause error) {
	logger.WithFields(logrus.Fields{
		"locator":   locator,
		"owner":     req.OwnerID,
		"file_name": req.FileName,
		"timestamp": time.Now().Format(time.RFC3339),
		"cause":     cause.Error(),
	}).Error("元数据写入失败，对象存储中产生孤儿对象")

	orphan := &database.OrphanedObject{
		Locator:  locator,
		OwnerID:  req.OwnerID,
		FileName: req.FileName,
		Reason:   cause.Error(),
	}
	if err := p.db.Create(orphan).Error; err != nil {
		logger.Errorf("孤儿对象登记失败: 定位键=%s, 错误=%v", locator, err)
	}
}

// rejectionError 将拒绝结论转换为类型化错误
func rejectionError(verdict moderation.Verdict) *apperrors.AppError {
	switch verdict.Kind {
	case moderation.VerdictRejectedMalware:
		return apperrors.NewByCode(apperrors.ErrMalwarePatternRejected).WithDetails(verdict.PatternID)
	case moderation.VerdictRejectedProfanity:
		detail := fmt.Sprintf("%s (confidence %.2f)", verdict.Token, verdict.Confidence)
		if verdict.Degraded {
			detail = fmt.Sprintf("%s (degraded)", verdict.Token)
		}
		return apperrors.NewByCode(apperrors.ErrProfanityRejected).WithDetails(detail)
	default:
		return apperrors.New(apperrors.ErrInternalServer, "unexpected rejection verdict")
	}
}
