package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dataset"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/service"
	"github.com/avemasa0625-dev/gantt-pro-app/pkg/response"
)

// DatasetHandler 数据集模块 HTTP 处理器
type DatasetHandler struct {
	datasetSvc service.DatasetService
	sessionSvc service.SessionService
}

// NewDatasetHandler 创建 DatasetHandler
func NewDatasetHandler(datasetSvc service.DatasetService, sessionSvc service.SessionService) *DatasetHandler {
	return &DatasetHandler{datasetSvc: datasetSvc, sessionSvc: sessionSvc}
}

// GetStatus 当前数据集状态
// GET /api/v1/dataset
func (h *DatasetHandler) GetStatus(c *gin.Context) {
	status := h.datasetSvc.Status()
	status.RemoteConnected = h.sessionSvc.RemoteConnected()
	response.OK(c, status)
}

// Import 导入四个 CSV
// POST /api/v1/dataset/import  (multipart/form-data)
func (h *DatasetHandler) Import(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, 10001, "请上传 multipart 表单")
		return
	}

	files := make(map[string]string, len(dataset.RequiredFiles))
	for field, headers := range form.File {
		for _, fh := range headers {
			name := importName(field, fh.Filename)
			if name == "" {
				continue
			}
			content, err := readFormFile(fh)
			if err != nil {
				response.BadRequest(c, 20002, "读取上传文件失败")
				return
			}
			files[name] = content
		}
	}

	status, err := h.datasetSvc.Import(c.Request.Context(), files)
	if err != nil {
		h.handleDatasetError(c, err)
		return
	}
	status.RemoteConnected = h.sessionSvc.RemoteConnected()
	response.OK(c, status)
}

// ListProducts 製品列表
// GET /api/v1/products
func (h *DatasetHandler) ListProducts(c *gin.Context) {
	response.OK(c, h.datasetSvc.ListProducts())
}

// ListParts 製品下的部品
// GET /api/v1/products/:id/parts
func (h *DatasetHandler) ListParts(c *gin.Context) {
	parts, err := h.datasetSvc.ListParts(c.Param("id"))
	if err != nil {
		h.handleDatasetError(c, err)
		return
	}
	response.OK(c, parts)
}

func (h *DatasetHandler) handleDatasetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dataset.ErrIncompleteBundle):
		response.BadRequest(c, 20001, err.Error())
	case errors.Is(err, service.ErrProductNotFound):
		response.NotFound(c, 20101, err.Error())
	case errors.Is(err, service.ErrPartNotFound):
		response.NotFound(c, 20102, err.Error())
	default:
		response.InternalError(c)
	}
}

// importName 字段名或文件名之一与约定文件名一致即可
func importName(field, filename string) string {
	for _, name := range dataset.RequiredFiles {
		if field == name {
			return name
		}
	}
	base := filepath.Base(filename)
	for _, name := range dataset.RequiredFiles {
		if base == name {
			return name
		}
	}
	return ""
}

func readFormFile(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
