package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"github.com/zapsync/zapsync/internal/middleware"
	"github.com/zapsync/zapsync/internal/response"
	fileservice "github.com/zapsync/zapsync/internal/service/file"
)

// FileHandler 文件查询处理器
type FileHandler struct {
	fileService fileservice.FileService
}

// NewFileHandler 创建文件查询处理器实例
func NewFileHandler(fileService fileservice.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// ListFiles 列出当前用户的文件
// @Summary 文件列表
// @Description 分页列出当前用户的文件，按创建时间倒序
// @Tags 文件管理
// @Produce json
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页数量，默认20"
// @Success 200 {object} response.Response "文件列表"
// @Router /api/v1/files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	records, total, err := h.fileService.ListFiles(middleware.GetOwnerID(c), page, pageSize)
	if err != nil {
		if appErr, ok := apperrors.GetAppError(err); ok {
			response.Error(c, int(appErr.Code), appErr.Message)
		} else {
			response.InternalServerError(c, err.Error())
		}
		return
	}

	response.SuccessWithPage(c, records, total, page, pageSize)
}

// GetFile 获取文件信息
// @Summary 获取文件信息
// @Description 根据文件ID获取当前用户文件的详细信息
// @Tags 文件管理
// @Produce json
// @Param id path string true "文件ID"
// @Success 200 {object} response.Response "文件信息"
// @Failure 404 {object} response.Response "文件不存在"
// @Router /api/v1/files/{id} [get]
func (h *FileHandler) GetFile(c *gin.Context) {
	fileID := c.Param("id")
	if fileID == "" {
		response.BadRequest(c, "文件ID不能为空")
		return
	}

	record, err := h.fileService.GetFile(middleware.GetOwnerID(c), fileID)
	if err != nil {
		if appErr, ok := apperrors.GetAppError(err); ok {
			if appErr.Code == apperrors.ErrFileNotFound {
				response.NotFound(c, appErr.Message)
				return
			}
			response.Error(c, int(appErr.Code), appErr.Message)
		} else {
			response.InternalServerError(c, err.Error())
		}
		return
	}

	response.Success(c, record)
}
