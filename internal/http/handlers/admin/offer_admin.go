package admin

import (
	"errors"

	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetAdminBatchOffers 批次内全部报价，含停用的
func (h *Handler) GetAdminBatchOffers(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	offers, err := h.OfferService.ListByBatch(batchID, false)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"items": offers})
}

// CreateOfferRequest 创建报价请求
type CreateOfferRequest struct {
	ProductID      uint    `json:"product_id" binding:"required"`
	PricePerVial   float64 `json:"price_per_vial" binding:"required"`
	BoxSize        int     `json:"box_size" binding:"required"`
	BoxesAvailable int     `json:"boxes_available"`
	IsActive       *bool   `json:"is_active"`
	SortOrder      int     `json:"sort_order"`
}

// CreateOffer 在批次下创建报价，同批次同药品只允许一条
func (h *Handler) CreateOffer(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	offer := &models.Offer{
		BatchID:        batchID,
		ProductID:      req.ProductID,
		PricePerVial:   models.NewMoneyFromDecimal(decimal.NewFromFloat(req.PricePerVial)),
		BoxSize:        req.BoxSize,
		BoxesAvailable: req.BoxesAvailable,
		IsActive:       isActive,
		SortOrder:      req.SortOrder,
	}
	if err := h.OfferService.Create(offer); err != nil {
		switch {
		case errors.Is(err, service.ErrBatchNotFound):
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
		case errors.Is(err, service.ErrProductNotAvailable):
			respondError(c, response.CodeBadRequest, "error.product_not_found", nil)
		case errors.Is(err, service.ErrOfferConflict):
			respondError(c, response.CodeConflict, "error.offer_conflict", nil)
		case errors.Is(err, service.ErrQuantityInvalid):
			respondError(c, response.CodeBadRequest, "error.quantity_invalid", nil)
		case errors.Is(err, service.ErrOfferNotAvailable):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, offer)
}

// UpdateOfferRequest 更新报价请求（价格、上下架、排序）
type UpdateOfferRequest struct {
	PricePerVial float64 `json:"price_per_vial" binding:"required"`
	IsActive     *bool   `json:"is_active" binding:"required"`
	SortOrder    int     `json:"sort_order"`
}

// UpdateOffer 更新报价基础信息，容量调整走专门接口
func (h *Handler) UpdateOffer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	offer, err := h.OfferService.Update(id,
		models.NewMoneyFromDecimal(decimal.NewFromFloat(req.PricePerVial)),
		*req.IsActive,
		req.SortOrder,
	)
	if err != nil {
		if errors.Is(err, service.ErrOfferNotAvailable) {
			respondError(c, response.CodeNotFound, "error.offer_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, offer)
}

// AdjustOfferCapacityRequest 调整整盒容量请求
type AdjustOfferCapacityRequest struct {
	BoxesAvailable int `json:"boxes_available"`
}

// AdjustOfferCapacity 调整整盒容量，不允许降到已占用量以下
func (h *Handler) AdjustOfferCapacity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AdjustOfferCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	offer, err := h.OfferService.AdjustCapacity(id, req.BoxesAvailable)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuantityInvalid):
			respondError(c, response.CodeBadRequest, "error.quantity_invalid", nil)
		case errors.Is(err, service.ErrCapacityAdjust):
			respondError(c, response.CodeConflict, "error.capacity_adjust", nil)
		case errors.Is(err, service.ErrOfferNotAvailable):
			respondError(c, response.CodeNotFound, "error.offer_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, offer)
}

// DeleteOffer 删除报价，已有容量占用时拒绝
func (h *Handler) DeleteOffer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.OfferService.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrOfferNotAvailable):
			respondError(c, response.CodeNotFound, "error.offer_not_found", nil)
		case errors.Is(err, service.ErrOfferInUse):
			respondError(c, response.CodeConflict, "error.offer_referenced", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
