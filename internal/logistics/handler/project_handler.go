package handler

import (
	"fmt"
	"net/url"

	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目、物料分配与报表
type ProjectHandler struct {
	svc        *service.ProjectService
	allocation *service.AllocationService
	report     *service.ReportService
}

func NewProjectHandler(svc *service.ProjectService, allocation *service.AllocationService, report *service.ReportService) *ProjectHandler {
	return &ProjectHandler{svc: svc, allocation: allocation, report: report}
}

func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: newPagination(page, pageSize, total)})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, p)
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, p)
}

func (h *ProjectHandler) CreateBatch(c *gin.Context) {
	var reqs []service.CreateProjectReq
	if err := c.ShouldBindJSON(&reqs); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	projects, err := h.svc.CreateBatch(c.Request.Context(), reqs)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, projects)
}

// CreateWithMaterials POST /projects/with-materials
func (h *ProjectHandler) CreateWithMaterials(c *gin.Context) {
	var req service.CreateProjectWithMaterialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	p, err := h.allocation.CreateProjectWithMaterials(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, p)
}

func (h *ProjectHandler) ListWithMaterials(c *gin.Context) {
	items, err := h.svc.ListWithMaterials(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

// Materials GET /projects/:id/materials
func (h *ProjectHandler) Materials(c *gin.Context) {
	items, err := h.svc.Materials(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

type useMaterialReq struct {
	MaterialID string `json:"material_id" binding:"required"`
	Amount     int    `json:"amount"`
}

// UseMaterial POST /projects/:id/materials/use
func (h *ProjectHandler) UseMaterial(c *gin.Context) {
	var req useMaterialReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	result, err := h.allocation.UseMaterial(c.Request.Context(), c.Param("id"), req.MaterialID, req.Amount, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, result)
}

func (h *ProjectHandler) Summary(c *gin.Context) {
	summary, err := h.report.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, summary)
}

// Export GET /projects/:id/report.xlsx
func (h *ProjectHandler) Export(c *gin.Context) {
	f, filename, err := h.report.ExportAllocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, "生成Excel失败: "+err.Error())
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
