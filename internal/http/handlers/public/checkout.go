package public

import (
	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结算请求
// 收货字段可留空，留空时使用买家资料中的默认收货信息。
type CheckoutRequest struct {
	BatchID         uint   `json:"batch_id" binding:"required"`
	ShippingMethod  string `json:"shipping_method"`
	ShippingName    string `json:"shipping_name"`
	ShippingPhone   string `json:"shipping_phone"`
	ShippingAddress string `json:"shipping_address"`
}

// Checkout 结算整个购物车：容量占用、订单生成、清车在同一事务内完成
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.CheckoutService.Checkout(service.CheckoutInput{
		UserID:          uid,
		BatchID:         req.BatchID,
		ShippingMethod:  req.ShippingMethod,
		ShippingName:    req.ShippingName,
		ShippingPhone:   req.ShippingPhone,
		ShippingAddress: req.ShippingAddress,
		ClientIP:        c.ClientIP(),
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	requestLog(c).Infow("checkout_succeeded",
		"user_id", uid,
		"batch_id", req.BatchID,
		"order_no", order.OrderNo,
	)
	response.Success(c, gin.H{"order": order})
}
