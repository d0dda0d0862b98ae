package handler

import (
	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/gin-gonic/gin"
)

// RequestHandler 物料申请
type RequestHandler struct {
	svc         *service.RequestService
	assignments *service.AssignmentService
}

func NewRequestHandler(svc *service.RequestService, assignments *service.AssignmentService) *RequestHandler {
	return &RequestHandler{svc: svc, assignments: assignments}
}

type createRequestReq struct {
	ProjectID  string `json:"project_id" binding:"required"`
	MaterialID string `json:"material_id" binding:"required"`
	Quantity   int    `json:"quantity"`
}

func (h *RequestHandler) Create(c *gin.Context) {
	var req createRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	mr, err := h.svc.CreateRequest(c.Request.Context(), req.ProjectID, req.MaterialID, req.Quantity, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, mr)
}

func (h *RequestHandler) Get(c *gin.Context) {
	mr, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, mr)
}

type assignReq struct {
	DriverID     string `json:"driver_id" binding:"required"`
	Quantity     int    `json:"quantity"`
	DeliveryDate string `json:"delivery_date" binding:"required"`
}

// Assign POST /requests/:id/assign
//
// Deprecated: 使用 POST /deliveries
func (h *RequestHandler) Assign(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	date, err := parseDate(req.DeliveryDate)
	if err != nil {
		BadRequest(c, "Invalid delivery_date: "+req.DeliveryDate)
		return
	}
	mr, err := h.svc.AssignRequest(c.Request.Context(), c.Param("id"), service.AssignRequestReq{
		DriverID:     req.DriverID,
		Quantity:     req.Quantity,
		DeliveryDate: date,
	}, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, mr)
}

// Deliver POST /requests/:id/deliver
func (h *RequestHandler) Deliver(c *gin.Context) {
	mr, err := h.svc.MarkDelivered(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, mr)
}

func (h *RequestHandler) PendingByProject(c *gin.Context) {
	items, err := h.svc.PendingByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

func (h *RequestHandler) AllPending(c *gin.Context) {
	items, err := h.svc.AllPending(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

func (h *RequestHandler) ListByProject(c *gin.Context) {
	items, err := h.svc.AllForProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

// Assignments GET /requests/:id/assignments
func (h *RequestHandler) Assignments(c *gin.Context) {
	items, err := h.assignments.ByRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}
