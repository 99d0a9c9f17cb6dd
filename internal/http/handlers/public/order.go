package public

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/vialpool-next/internal/http/handlers/shared"
	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/repository"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetMyOrders 买家订单列表
func (h *Handler) GetMyOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	batchID, _ := strconv.ParseUint(c.Query("batch_id"), 10, 64)
	orders, total, err := h.OrderService.ListOrdersByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		BatchID:  uint(batchID),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"items": orders}, response.NewPagination(page, pageSize, total))
}

// GetMyOrder 买家订单详情，支持订单 ID 或订单编号
func (h *Handler) GetMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	raw := strings.TrimSpace(c.Param("id"))
	if raw == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var err error
	var order interface{}
	if id, perr := strconv.ParseUint(raw, 10, 64); perr == nil && id > 0 {
		order, err = h.OrderService.GetOrderByUser(uint(id), uid)
	} else {
		order, err = h.OrderService.GetOrderByUserOrderNo(raw, uid)
	}
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"order": order})
}
