package handler

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/gin-gonic/gin"
)

const maxImportSize = 10 << 20

// ImportHandler Excel 批量导入
type ImportHandler struct {
	svc *service.ImportService
}

func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// Upload POST /imports/:kind (multipart, 字段 file)
func (h *ImportHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传文件")
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".xlsx") {
		BadRequest(c, "仅支持 .xlsx 文件")
		return
	}
	if file.Size > maxImportSize {
		BadRequest(c, "文件过大，最大 10MB")
		return
	}

	src, err := file.Open()
	if err != nil {
		InternalError(c, "读取上传文件失败: "+err.Error())
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxImportSize+1))
	if err != nil {
		InternalError(c, "读取上传文件失败: "+err.Error())
		return
	}

	result, err := h.svc.Import(c.Request.Context(), c.Param("kind"), filepath.Base(file.Filename), data)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}
