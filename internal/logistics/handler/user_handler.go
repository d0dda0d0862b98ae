package handler

import (
	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户与司机目录
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	u, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, u)
}

// RegisterBatch POST /users/batch
func (h *UserHandler) RegisterBatch(c *gin.Context) {
	var reqs []service.RegisterReq
	if err := c.ShouldBindJSON(&reqs); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	users, err := h.svc.RegisterAll(c.Request.Context(), reqs)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, users)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, users)
}

func (h *UserHandler) Drivers(c *gin.Context) {
	users, err := h.svc.ListDrivers(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, u)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	u, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, u)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}
