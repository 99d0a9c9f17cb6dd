package admin

import (
	"errors"
	"time"

	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/repository"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminOrderQuery 后台订单列表查询条件
type AdminOrderQuery struct {
	UserID      uint   `form:"user_id"`
	BatchID     uint   `form:"batch_id"`
	Status      string `form:"status"`
	OrderNo     string `form:"order_no"`
	CreatedFrom string `form:"created_from"`
	CreatedTo   string `form:"created_to"`
}

// GetAdminOrders 后台订单列表（分页）
func (h *Handler) GetAdminOrders(c *gin.Context) {
	page, pageSize := pageParams(c)
	var query AdminOrderQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   query.UserID,
		BatchID:  query.BatchID,
		Status:   query.Status,
		OrderNo:  query.OrderNo,
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

	orders, total, err := h.OrderService.ListOrdersForAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetAdminOrder 后台订单详情（含订单项）
func (h *Handler) GetAdminOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderForAdmin(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatusRequest 订单状态推进请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus 按固定顺序推进订单状态，不允许跳级或回退
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.UpdateOrderStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeConflict, "error.order_status_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	requestLog(c).Infow("order_status_updated", "order_id", order.ID, "status", order.Status, "admin_id", c.GetUint("admin_id"))
	response.Success(c, order)
}

// CancelOrder 后台取消订单并释放容量占用
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeConflict, "error.order_status_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	requestLog(c).Infow("order_canceled", "order_id", order.ID, "order_no", order.OrderNo, "admin_id", c.GetUint("admin_id"))
	response.Success(c, order)
}
