package service

import (
	"errors"
	"time"

	"github.com/vialpool-next/internal/constants"
	"github.com/vialpool-next/internal/logger"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/queue"
	"github.com/vialpool-next/internal/repository"

	"gorm.io/gorm"
)

// allowedOrderTransitions 线下收款流程的订单状态推进表
var allowedOrderTransitions = map[string]map[string]bool{
	constants.OrderStatusPendingPayment: {
		constants.OrderStatusPaid: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusShipped: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusCompleted: true,
	},
}

// cancelableOrderStatuses 允许取消的非终态
var cancelableOrderStatuses = []string{
	constants.OrderStatusPendingPayment,
	constants.OrderStatusPaid,
	constants.OrderStatusShipped,
}

// OrderService 订单服务（查询 + 后台状态流转）
type OrderService struct {
	orderRepo   repository.OrderRepository
	capacity    *CapacityService
	queueClient *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, capacity *CapacityService, queueClient *queue.Client) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		capacity:    capacity,
		queueClient: queueClient,
	}
}

// GetOrderByUser 买家查询订单详情
func (s *OrderService) GetOrderByUser(orderID, userID uint) (*models.Order, error) {
	if orderID == 0 || userID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByUserOrderNo 买家按订单编号查询
func (s *OrderService) GetOrderByUserOrderNo(orderNo string, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNoAndUser(orderNo, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 买家订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListOrdersForAdmin 后台订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetOrderForAdmin 后台订单详情
func (s *OrderService) GetOrderForAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus 后台按状态表推进订单状态
func (s *OrderService) UpdateOrderStatus(orderID uint, targetStatus string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	allowed, ok := allowedOrderTransitions[order.Status]
	if !ok || !allowed[targetStatus] {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	if targetStatus == constants.OrderStatusPaid {
		updates["paid_at"] = &now
	}
	affected, err := s.orderRepo.UpdateStatus(orderID, []string{order.Status}, targetStatus, updates)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrOrderStatusInvalid
	}

	logger.Infow("order_status_changed",
		"order_id", orderID,
		"order_no", order.OrderNo,
		"from", order.Status,
		"to", targetStatus,
	)
	return s.orderRepo.GetByID(orderID)
}

// CancelOrder 后台取消订单并回补容量
// 状态条件与容量回补在同一事务内完成，重复取消不会二次释放。
func (s *OrderService) CancelOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusCanceled || order.Status == constants.OrderStatusCompleted {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		capacity := s.capacity.WithTx(tx)

		affected, err := orderRepo.UpdateStatus(orderID, cancelableOrderStatuses, constants.OrderStatusCanceled, map[string]interface{}{
			"canceled_at": &now,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderStatusInvalid
		}

		for _, item := range order.Items {
			if err := capacity.Release(item.OfferID, item.Quantity); err != nil {
				if errors.Is(err, ErrQuantityInvalid) {
					// 报价可能已被删除或容量被覆盖调过，记录后继续
					logger.Warnw("order_cancel_release_skipped",
						"order_id", orderID,
						"offer_id", item.OfferID,
						"quantity", item.Quantity,
					)
					continue
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_canceled",
		"order_id", orderID,
		"order_no", order.OrderNo,
		"batch_id", order.BatchID,
	)
	if s.queueClient != nil && s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueBatchFillCheck(queue.BatchFillCheckPayload{BatchID: order.BatchID}); err != nil {
			logger.Warnw("batch_fill_check_enqueue_failed", "batch_id", order.BatchID, "error", err)
		}
	}
	return s.orderRepo.GetByID(orderID)
}
