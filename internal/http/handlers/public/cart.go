package public

import (
	"strconv"

	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartLineRequest 购物车写请求
type CartLineRequest struct {
	BatchID  uint `json:"batch_id" binding:"required"`
	OfferID  uint `json:"offer_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

// GetCart 获取买家在某批次下的购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	batchID, err := strconv.ParseUint(c.Query("batch_id"), 10, 64)
	if err != nil || batchID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	lines, err := h.CartService.ListByUser(uid, uint(batchID))
	if err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, gin.H{"items": lines})
}

// AddCartItem 加入购物车，同报价已有行数量累加
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CartService.AddItem(service.UpsertCartLineInput{
		UserID:   uid,
		BatchID:  req.BatchID,
		OfferID:  req.OfferID,
		Quantity: req.Quantity,
	}); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// SetCartItemQuantity 设置购物车行数量，数量 <= 0 等价删除
func (h *Handler) SetCartItemQuantity(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	offerID, ok := parseIDParam(c, "offer_id")
	if !ok {
		return
	}
	var req struct {
		BatchID  uint `json:"batch_id" binding:"required"`
		Quantity int  `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CartService.SetQuantity(service.UpsertCartLineInput{
		UserID:   uid,
		BatchID:  req.BatchID,
		OfferID:  offerID,
		Quantity: req.Quantity,
	}); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// DeleteCartItem 删除购物车行
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	offerID, ok := parseIDParam(c, "offer_id")
	if !ok {
		return
	}
	batchID, err := strconv.ParseUint(c.Query("batch_id"), 10, 64)
	if err != nil || batchID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CartService.RemoveItem(uid, uint(batchID), offerID); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
