package handler

import (
	"strings"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/bitfantasy/ips-logistics/internal/middleware"
	"github.com/gin-gonic/gin"
)

// DeliveryHandler 司机配送分配
type DeliveryHandler struct {
	svc *service.AssignmentService
}

func NewDeliveryHandler(svc *service.AssignmentService) *DeliveryHandler {
	return &DeliveryHandler{svc: svc}
}

type assignDriverReq struct {
	RequestID    string `json:"request_id" binding:"required"`
	DriverID     string `json:"driver_id" binding:"required"`
	Quantity     int    `json:"quantity"`
	DeliveryDate string `json:"delivery_date" binding:"required"`
}

// AssignDriver POST /deliveries
func (h *DeliveryHandler) AssignDriver(c *gin.Context) {
	var req assignDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	date, err := parseDate(req.DeliveryDate)
	if err != nil {
		BadRequest(c, "Invalid delivery_date: "+req.DeliveryDate)
		return
	}
	a, err := h.svc.AssignDriver(c.Request.Context(), req.RequestID, req.DriverID, req.Quantity, date, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, a)
}

func (h *DeliveryHandler) Get(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, a)
}

// Mine GET /deliveries/mine
func (h *DeliveryHandler) Mine(c *gin.Context) {
	items, err := h.svc.ByDriver(c.Request.Context(), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

func (h *DeliveryHandler) ByDriver(c *gin.Context) {
	items, err := h.svc.ByDriver(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

func (h *DeliveryHandler) History(c *gin.Context) {
	items, err := h.svc.HistoryByDriver(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus PATCH /deliveries/:id/status
// 司机只能更新分配给自己的配送
func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	id := c.Param("id")
	if !canManage(GetRoles(c)) {
		a, err := h.svc.Get(c.Request.Context(), id)
		if err != nil {
			ServiceError(c, err)
			return
		}
		if a.DriverID != GetUserID(c) {
			Forbidden(c, "Delivery is assigned to another driver")
			return
		}
	}

	a, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, a)
}

func canManage(roles []string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, entity.RoleHead) || strings.EqualFold(r, middleware.SuperRole) {
			return true
		}
	}
	return false
}
