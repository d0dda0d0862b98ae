package handler

import (
	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler 登录、刷新令牌和密码重置
type AuthHandler struct {
	svc   *service.AuthService
	reset *service.PasswordResetService
}

func NewAuthHandler(svc *service.AuthService, reset *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{svc: svc, reset: reset}
}

type loginReq struct {
	Mail     string `json:"mail" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	result, err := h.svc.Login(c.Request.Context(), req.Mail, req.Password)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	result, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// Me GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, u)
}

type forgotPasswordReq struct {
	Mail string `json:"mail" binding:"required"`
}

// ForgotPassword POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	msg, err := h.reset.ForgotPassword(c.Request.Context(), req.Mail)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": msg})
}

type resetPasswordReq struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPassword POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.reset.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "Password has been reset."})
}
