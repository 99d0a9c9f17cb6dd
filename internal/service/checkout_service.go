package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/vialpool-next/internal/constants"
	"github.com/vialpool-next/internal/logger"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/queue"
	"github.com/vialpool-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutService 结算服务
// 结算是全有或全无的：任意一行容量占用失败，整个事务回滚，购物车原样保留。
type CheckoutService struct {
	cartRepo    repository.CartRepository
	offerRepo   repository.OfferRepository
	orderRepo   repository.OrderRepository
	batchRepo   repository.BatchRepository
	userRepo    repository.UserRepository
	capacity    *CapacityService
	queueClient *queue.Client
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(cartRepo repository.CartRepository, offerRepo repository.OfferRepository, orderRepo repository.OrderRepository, batchRepo repository.BatchRepository, userRepo repository.UserRepository, capacity *CapacityService, queueClient *queue.Client) *CheckoutService {
	return &CheckoutService{
		cartRepo:    cartRepo,
		offerRepo:   offerRepo,
		orderRepo:   orderRepo,
		batchRepo:   batchRepo,
		userRepo:    userRepo,
		capacity:    capacity,
		queueClient: queueClient,
	}
}

// CheckoutInput 结算输入
// 收货字段为空时回落到买家资料里的默认值。
type CheckoutInput struct {
	UserID          uint
	BatchID         uint
	ShippingMethod  string
	ShippingName    string
	ShippingPhone   string
	ShippingAddress string
	ClientIP        string
}

// shippingSnapshot 订单上的收货信息快照
type shippingSnapshot struct {
	Method  string
	Name    string
	Phone   string
	Address string
}

func resolveShipping(input CheckoutInput, user *models.User) (shippingSnapshot, error) {
	snap := shippingSnapshot{
		Method:  strings.TrimSpace(input.ShippingMethod),
		Name:    strings.TrimSpace(input.ShippingName),
		Phone:   strings.TrimSpace(input.ShippingPhone),
		Address: strings.TrimSpace(input.ShippingAddress),
	}
	if user != nil {
		if snap.Method == "" {
			snap.Method = user.ShippingMethod
		}
		if snap.Name == "" {
			snap.Name = user.ShippingName
		}
		if snap.Phone == "" {
			snap.Phone = user.ShippingPhone
		}
		if snap.Address == "" {
			snap.Address = user.ShippingAddress
		}
	}

	methodOK := false
	for _, m := range constants.SupportedShippingMethods {
		if m == snap.Method {
			methodOK = true
			break
		}
	}
	if !methodOK || snap.Name == "" || snap.Phone == "" {
		return snap, ErrShippingIncomplete
	}
	if snap.Method == constants.ShippingMethodCourier && snap.Address == "" {
		return snap, ErrShippingIncomplete
	}
	return snap, nil
}

// Checkout 结算买家在某批次下的整个购物车
// 瞬时数据库故障透明重试一次；业务性失败不重试。
func (s *CheckoutService) Checkout(input CheckoutInput) (*models.Order, error) {
	order, err := s.checkoutOnce(input)
	if err == nil {
		s.afterCheckout(order)
		return order, nil
	}
	if !isTransientFault(err) {
		return nil, err
	}
	logger.Warnw("checkout_transient_fault_retry",
		"user_id", input.UserID,
		"batch_id", input.BatchID,
		"error", err,
	)
	order, err = s.checkoutOnce(input)
	if err != nil {
		if isTransientFault(err) {
			logger.Errorw("checkout_failed_after_retry",
				"user_id", input.UserID,
				"batch_id", input.BatchID,
				"error", err,
			)
			return nil, ErrCheckoutFailed
		}
		return nil, err
	}
	s.afterCheckout(order)
	return order, nil
}

// checkoutErrs 结算路径上的业务哨兵，命中任何一个都不触发重试。
var checkoutErrs = []error{
	ErrBatchNotFound,
	ErrBatchPhaseInvalid,
	ErrCartEmpty,
	ErrShippingIncomplete,
	ErrOfferNotAvailable,
	ErrCapacityExceeded,
	ErrQuantityInvalid,
	ErrInvalidCartItem,
	ErrNotFound,
	ErrUserDisabled,
}

func isTransientFault(err error) bool {
	if err == nil {
		return false
	}
	for _, sentinel := range checkoutErrs {
		if errors.Is(err, sentinel) {
			return false
		}
	}
	return true
}

func (s *CheckoutService) checkoutOnce(input CheckoutInput) (*models.Order, error) {
	if input.UserID == 0 || input.BatchID == 0 {
		return nil, ErrInvalidCartItem
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.Status != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}
	shipping, err := resolveShipping(input, user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          input.UserID,
		BatchID:         input.BatchID,
		Status:          constants.OrderStatusPendingPayment,
		Currency:        "CNY",
		ShippingMethod:  shipping.Method,
		ShippingName:    shipping.Name,
		ShippingPhone:   shipping.Phone,
		ShippingAddress: shipping.Address,
		ClientIP:        strings.TrimSpace(input.ClientIP),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		batchRepo := s.batchRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)
		offerRepo := s.offerRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		capacity := s.capacity.WithTx(tx)

		// 前置条件在事务内重查，拿到的才算数
		batch, err := batchRepo.GetByID(input.BatchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return ErrBatchNotFound
		}
		if batch.Phase != constants.BatchPhaseFilling {
			return ErrBatchPhaseInvalid
		}

		lines, err := cartRepo.ListByUserAndBatch(input.UserID, input.BatchID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		// 先整体校验，再逐行占用：报价失效在任何占用发生前就失败
		offers := make(map[uint]*models.Offer, len(lines))
		for _, line := range lines {
			if line.Quantity <= 0 {
				return ErrQuantityInvalid
			}
			offer, err := offerRepo.GetByID(line.OfferID)
			if err != nil {
				return err
			}
			if offer == nil || !offer.IsActive || offer.BatchID != input.BatchID {
				return ErrOfferNotAvailable
			}
			offers[line.OfferID] = offer
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			offer := offers[line.OfferID]
			if err := capacity.Reserve(offer.ID, line.Quantity); err != nil {
				return err
			}

			lineTotal := offer.PricePerVial.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(lineTotal)
			title := models.JSON{}
			if offer.Product != nil {
				title = offer.Product.TitleJSON
			}
			items = append(items, models.OrderItem{
				OfferID:      offer.ID,
				ProductID:    offer.ProductID,
				TitleJSON:    title,
				PricePerVial: offer.PricePerVial,
				Quantity:     line.Quantity,
				TotalPrice:   models.NewMoneyFromDecimal(lineTotal),
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}

		order.TotalAmount = models.NewMoneyFromDecimal(total)
		if err := orderRepo.Create(order, items); err != nil {
			return err
		}
		return cartRepo.ClearByUserAndBatch(input.UserID, input.BatchID)
	})
	if err != nil {
		return nil, err
	}

	full, err := s.orderRepo.GetByID(order.ID)
	if err == nil && full != nil {
		return full, nil
	}
	return order, nil
}

func (s *CheckoutService) afterCheckout(order *models.Order) {
	if order == nil {
		return
	}
	logger.Infow("checkout_order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"batch_id", order.BatchID,
		"total", order.TotalAmount.String(),
	)
	if s.queueClient != nil && s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueBatchFillCheck(queue.BatchFillCheckPayload{BatchID: order.BatchID}); err != nil {
			logger.Warnw("batch_fill_check_enqueue_failed", "batch_id", order.BatchID, "error", err)
		}
	}
}

// generateOrderNo 生成订单编号：VP + 时间戳 + 6 位随机数字
func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("VP%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
