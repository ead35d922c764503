package handler

import (
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"github.com/zapsync/zapsync/internal/middleware"
	"github.com/zapsync/zapsync/internal/response"
	"github.com/zapsync/zapsync/internal/service/pipeline"
)

// UploadHandler 上传处理器
// @Description 文件上传相关的HTTP处理器
type UploadHandler struct {
	pipeline *pipeline.Pipeline
}

// NewUploadHandler 创建上传处理器实例
func NewUploadHandler(p *pipeline.Pipeline) *UploadHandler {
	return &UploadHandler{pipeline: p}
}

// UploadFile 上传单个文件
// @Summary 上传单个文件
// @Description 上传单个文件，经过校验、内容审核后存储
// @Tags 文件上传
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "要上传的文件"
// @Param description formData string false "文件描述"
// @Success 201 {object} response.Response "上传成功"
// @Failure 400 {object} response.Response "校验或审核拒绝"
// @Router /api/v1/files/upload [post]
func (h *UploadHandler) UploadFile(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "无效的multipart表单")
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		response.BadRequest(c, "未选择文件")
		return
	}
	// 单文件端点严格限制文件数
	if len(files) > 1 {
		appErr := apperrors.NewByCode(apperrors.ErrTooManyFiles)
		response.Error(c, int(appErr.Code), appErr.Message)
		return
	}

	req, appErr := buildUploadRequest(c, files[0])
	if appErr != nil {
		response.Error(c, int(appErr.Code), appErr.Message)
		return
	}
	req.Description = c.PostForm("description")

	record, err := h.pipeline.ProcessUpload(c.Request.Context(), req)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	response.Created(c, "文件上传成功", record)
}

// UploadBatch 批量上传文件到文件夹
// @Summary 批量上传文件
// @Description 向指定文件夹批量上传文件，单个文件失败不影响其余文件
// @Tags 文件上传
// @Accept multipart/form-data
// @Produce json
// @Param folderId path int true "目标文件夹ID"
// @Param files formData file true "要上传的文件列表"
// @Success 200 {object} response.Response "批量结果汇总"
// @Failure 404 {object} response.Response "文件夹不存在"
// @Router /api/v1/folders/{folderId}/files [post]
func (h *UploadHandler) UploadBatch(c *gin.Context) {
	folderID, err := strconv.ParseUint(c.Param("folderId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的文件夹ID")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "无效的multipart表单")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		response.BadRequest(c, "未选择文件")
		return
	}

	ownerID := middleware.GetOwnerID(c)
	requests := make([]*pipeline.UploadRequest, 0, len(files))
	for _, fh := range files {
		req, appErr := buildUploadRequest(c, fh)
		if appErr != nil {
			// 读不出来的part意味着表单本身损坏，整个请求拒绝
			response.BadRequest(c, appErr.Message)
			return
		}
		requests = append(requests, req)
	}

	result, err := h.pipeline.UploadBatch(c.Request.Context(), ownerID, uint(folderID), requests)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	response.SuccessWithMessage(c, result.Message, result)
}

// buildUploadRequest 读取multipart文件构造上传请求
func buildUploadRequest(c *gin.Context, fh *multipart.FileHeader) (*pipeline.UploadRequest, *apperrors.AppError) {
	src, err := fh.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidParams, "无法打开上传的文件", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidParams, "读取上传内容失败", err)
	}

	return &pipeline.UploadRequest{
		OwnerID:  middleware.GetOwnerID(c),
		FileName: fh.Filename,
		Size:     fh.Size,
		Data:     data,
	}, nil
}

// respondPipelineError 将管线错误映射为统一响应
func respondPipelineError(c *gin.Context, err error) {
	if appErr, ok := apperrors.GetAppError(err); ok {
		message := appErr.Message
		if appErr.Details != "" {
			message = appErr.Message + ": " + appErr.Details
		}
		if appErr.Code == apperrors.ErrFolderNotFound {
			response.NotFound(c, message)
			return
		}
		response.Error(c, int(appErr.Code), message)
		return
	}
	response.InternalServerError(c, err.Error())
}
