package admin

import (
	"errors"
	"time"

	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/repository"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminBuyerQuery 买家列表查询条件
type AdminBuyerQuery struct {
	Keyword     string `form:"keyword"`
	Status      string `form:"status"`
	CreatedFrom string `form:"created_from"`
	CreatedTo   string `form:"created_to"`
}

// GetAdminBuyers 白名单买家列表（分页）
func (h *Handler) GetAdminBuyers(c *gin.Context) {
	page, pageSize := pageParams(c)
	var query AdminBuyerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	filter := repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  query.Keyword,
		Status:   query.Status,
	}
	if query.CreatedFrom != "" {
		t, err := time.Parse(time.RFC3339, query.CreatedFrom)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.CreatedFrom = &t
	}
	if query.CreatedTo != "" {
		t, err := time.Parse(time.RFC3339, query.CreatedTo)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.CreatedTo = &t
	}

	users, total, err := h.BuyerService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}

// GetAdminBuyer 买家详情
func (h *Handler) GetAdminBuyer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.BuyerService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.buyer_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, user)
}

// CreateBuyerRequest 录入白名单买家请求
type CreateBuyerRequest struct {
	Phone       string `json:"phone" binding:"required"`
	WhatsApp    string `json:"whatsapp"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
}

// CreateBuyer 录入买家，参团码明文只在本次响应返回一次
func (h *Handler) CreateBuyer(c *gin.Context) {
	var req CreateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, accessCode, err := h.BuyerService.Create(service.CreateBuyerInput{
		Phone:       req.Phone,
		WhatsApp:    req.WhatsApp,
		DisplayName: req.DisplayName,
		Locale:      req.Locale,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeConflict, "error.buyer_phone_conflict", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	requestLog(c).Infow("buyer_created", "user_id", user.ID, "admin_id", c.GetUint("admin_id"))
	response.Success(c, gin.H{
		"user":        user,
		"access_code": accessCode,
	})
}

// ResetBuyerAccessCode 重签参团码并作废旧登录态，明文只返回一次
func (h *Handler) ResetBuyerAccessCode(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, accessCode, err := h.BuyerService.ResetAccessCode(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.buyer_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	requestLog(c).Infow("buyer_access_code_reset", "user_id", user.ID, "admin_id", c.GetUint("admin_id"))
	response.Success(c, gin.H{
		"user":        user,
		"access_code": accessCode,
	})
}

// UpdateBuyerStatusRequest 启停买家请求
type UpdateBuyerStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateBuyerStatus 启用或停用买家，停用即刻作废其登录态
func (h *Handler) UpdateBuyerStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateBuyerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, err := h.BuyerService.UpdateStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.buyer_not_found", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	requestLog(c).Infow("buyer_status_updated", "user_id", user.ID, "status", user.Status, "admin_id", c.GetUint("admin_id"))
	response.Success(c, user)
}
