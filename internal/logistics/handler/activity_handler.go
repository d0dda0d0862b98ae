package handler

import (
	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/gin-gonic/gin"
)

// ActivityHandler 操作日志
type ActivityHandler struct {
	svc *service.ActivityService
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// List GET /activity/:entityType/:entityId
func (h *ActivityHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), c.Param("entityType"), c.Param("entityId"), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: newPagination(page, pageSize, total)})
}
