package public

import (
	"errors"
	"time"

	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UserLoginRequest 买家登录请求（手机号 + 参团码）
type UserLoginRequest struct {
	Phone      string `json:"phone" binding:"required"`
	AccessCode string `json:"access_code" binding:"required"`
}

// UserLogin 买家登录
// 买家不开放注册，账号由管理员预先录入白名单。
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Login(req.Phone, req.AccessCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			requestLog(c).Infow("user_login_rejected", "phone", req.Phone, "reason", "invalid_credentials")
			respondError(c, response.CodeUnauthorized, "error.invalid_credentials", nil)
		case errors.Is(err, service.ErrUserDisabled):
			requestLog(c).Infow("user_login_rejected", "phone", req.Phone, "reason", "disabled")
			respondError(c, response.CodeUnauthorized, "error.user_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("user_login_succeeded", "user_id", user.ID)
	response.Success(c, gin.H{
		"user":       userProfileResponse(user),
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// GetCurrentUser 获取当前买家资料
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"user": userProfileResponse(user)})
}

// UpdateUserProfileRequest 买家资料更新请求，仅提交的字段会被修改
type UpdateUserProfileRequest struct {
	DisplayName     *string `json:"display_name"`
	Locale          *string `json:"locale"`
	WhatsApp        *string `json:"whatsapp"`
	ShippingMethod  *string `json:"shipping_method"`
	ShippingName    *string `json:"shipping_name"`
	ShippingPhone   *string `json:"shipping_phone"`
	ShippingAddress *string `json:"shipping_address"`
}

// UpdateUserProfile 更新买家资料与默认收货信息
func (h *Handler) UpdateUserProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateUserProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, err := h.UserAuthService.UpdateProfile(uid, service.UpdateProfileInput{
		DisplayName:     req.DisplayName,
		Locale:          req.Locale,
		WhatsApp:        req.WhatsApp,
		ShippingMethod:  req.ShippingMethod,
		ShippingName:    req.ShippingName,
		ShippingPhone:   req.ShippingPhone,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		case errors.Is(err, service.ErrShippingIncomplete):
			respondError(c, response.CodeBadRequest, "error.shipping_method_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, gin.H{"user": userProfileResponse(user)})
}

func userProfileResponse(user *models.User) gin.H {
	return gin.H{
		"id":               user.ID,
		"phone":            user.Phone,
		"display_name":     user.DisplayName,
		"locale":           user.Locale,
		"whatsapp":         user.WhatsApp,
		"shipping_method":  user.ShippingMethod,
		"shipping_name":    user.ShippingName,
		"shipping_phone":   user.ShippingPhone,
		"shipping_address": user.ShippingAddress,
		"last_login_at":    user.LastLoginAt,
	}
}
