package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vialpool-next/internal/constants"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/queue"
	"github.com/vialpool-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type checkoutTestEnv struct {
	db       *gorm.DB
	checkout *CheckoutService
	orders   *OrderService
	carts    *CartService
	batches  *BatchService
}

func setupCheckoutTest(t *testing.T) *checkoutTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:checkout_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.User{},
		&models.Batch{},
		&models.Product{},
		&models.Offer{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.PhaseAuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cartRepo := repository.NewCartRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewPhaseAuditLogRepository(db)
	queueClient, _ := queue.NewClient(nil)

	capacity := NewCapacityService(offerRepo)
	return &checkoutTestEnv{
		db:       db,
		checkout: NewCheckoutService(cartRepo, offerRepo, orderRepo, batchRepo, userRepo, capacity, queueClient),
		orders:   NewOrderService(orderRepo, capacity, queueClient),
		carts:    NewCartService(cartRepo, offerRepo, batchRepo),
		batches:  NewBatchService(batchRepo, offerRepo, orderRepo, auditRepo),
	}
}

func createCheckoutUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Phone:           fmt.Sprintf("138%08d", time.Now().UnixNano()%100000000),
		AccessCodeHash:  "hash",
		Status:          constants.UserStatusActive,
		ShippingMethod:  constants.ShippingMethodCourier,
		ShippingName:    "测试买家",
		ShippingPhone:   "13800000000",
		ShippingAddress: "测试路 1 号",
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createFillingBatch(t *testing.T, db *gorm.DB, slug string) *models.Batch {
	t.Helper()
	batch := &models.Batch{
		Slug:      slug,
		TitleJSON: models.JSON{"zh-CN": "测试批次"},
		Phase:     constants.BatchPhaseFilling,
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	return batch
}

func createBatchOffer(t *testing.T, db *gorm.DB, batchID uint, price int64, boxSize, boxes, committed int) *models.Offer {
	t.Helper()
	product := &models.Product{
		Slug:      fmt.Sprintf("product-%d-%d", batchID, time.Now().UnixNano()),
		TitleJSON: models.JSON{"zh-CN": "测试药品"},
		IsActive:  true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	offer := &models.Offer{
		BatchID:        batchID,
		ProductID:      product.ID,
		PricePerVial:   models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		BoxSize:        boxSize,
		BoxesAvailable: boxes,
		CommittedUnits: committed,
		IsActive:       true,
	}
	if err := db.Create(offer).Error; err != nil {
		t.Fatalf("create offer failed: %v", err)
	}
	return offer
}

func addCartLine(t *testing.T, db *gorm.DB, userID, batchID, offerID uint, quantity int) {
	t.Helper()
	item := &models.CartItem{
		UserID:   userID,
		BatchID:  batchID,
		OfferID:  offerID,
		Quantity: quantity,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create cart line failed: %v", err)
	}
}

func offerCommitted(t *testing.T, db *gorm.DB, offerID uint) int {
	t.Helper()
	var offer models.Offer
	if err := db.First(&offer, offerID).Error; err != nil {
		t.Fatalf("reload offer failed: %v", err)
	}
	return offer.CommittedUnits
}

func cartLineCount(t *testing.T, db *gorm.DB, userID, batchID uint) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ? AND batch_id = ?", userID, batchID).Count(&count).Error; err != nil {
		t.Fatalf("count cart lines failed: %v", err)
	}
	return count
}

func TestCheckoutSuccessFreezesPriceAndClearsCart(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-success")
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 4)

	order, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("order status want pending_payment got %s", order.Status)
	}
	if len(order.Items) != 1 {
		t.Fatalf("order items want 1 got %d", len(order.Items))
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("total want 400 got %s", order.TotalAmount.String())
	}
	if order.ShippingName != "测试买家" || order.ShippingAddress == "" {
		t.Fatalf("shipping snapshot missing: %+v", order)
	}
	if got := offerCommitted(t, env.db, offer.ID); got != 4 {
		t.Fatalf("committed want 4 got %d", got)
	}
	if got := cartLineCount(t, env.db, user.ID, batch.ID); got != 0 {
		t.Fatalf("cart should be cleared, got %d lines", got)
	}

	// 改价不影响已生成订单的快照价
	if err := env.db.Model(&models.Offer{}).Where("id = ?", offer.ID).
		Update("price_per_vial", models.NewMoneyFromDecimal(decimal.NewFromInt(250))).Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}
	var item models.OrderItem
	if err := env.db.Where("order_id = ?", order.ID).First(&item).Error; err != nil {
		t.Fatalf("reload order item failed: %v", err)
	}
	if !item.PricePerVial.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("frozen price want 100 got %s", item.PricePerVial.String())
	}
}

func TestCartReusableAfterCheckout(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-reuse")
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)

	if err := env.carts.AddItem(UpsertCartLineInput{UserID: user.ID, BatchID: batch.ID, OfferID: offer.ID, Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// 结算清空购物车后，同一报价要能立即重新加入
	if err := env.carts.AddItem(UpsertCartLineInput{UserID: user.ID, BatchID: batch.ID, OfferID: offer.ID, Quantity: 3}); err != nil {
		t.Fatalf("re-add after checkout failed: %v", err)
	}
	lines, err := env.carts.ListByUser(user.ID, batch.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 3 {
		t.Fatalf("want single line qty 3, got %+v", lines)
	}
}

func TestCheckoutAllOrNothing(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-atomic")
	offerA := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)
	offerB := createBatchOffer(t, env.db, batch.ID, 80, 10, 1, 8)
	addCartLine(t, env.db, user.ID, batch.ID, offerA.ID, 4)
	// B 只剩 2 支，要 5 支必然失败
	addCartLine(t, env.db, user.ID, batch.ID, offerB.ID, 5)

	_, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded got %v", err)
	}

	if got := offerCommitted(t, env.db, offerA.ID); got != 0 {
		t.Fatalf("offer A committed should roll back to 0, got %d", got)
	}
	if got := offerCommitted(t, env.db, offerB.ID); got != 8 {
		t.Fatalf("offer B committed want 8 got %d", got)
	}
	if got := cartLineCount(t, env.db, user.ID, batch.ID); got != 2 {
		t.Fatalf("cart should be intact, got %d lines", got)
	}
	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("no order should exist, got %d", orderCount)
	}
}

func TestCheckoutNearCapacityBoundary(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-boundary")
	// 容量 50 支、已占 45：要 4 支成功，要 6 支失败
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 45)
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 6)

	_, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded got %v", err)
	}
	if got := offerCommitted(t, env.db, offer.ID); got != 45 {
		t.Fatalf("committed want 45 got %d", got)
	}

	if err := env.carts.SetQuantity(UpsertCartLineInput{UserID: user.ID, BatchID: batch.ID, OfferID: offer.ID, Quantity: 4}); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if _, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID}); err != nil {
		t.Fatalf("checkout within remainder failed: %v", err)
	}
	if got := offerCommitted(t, env.db, offer.ID); got != 49 {
		t.Fatalf("committed want 49 got %d", got)
	}
}

func TestCheckoutPhaseGated(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-phase")
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 2)

	for _, phase := range []string{constants.BatchPhaseOpen, constants.BatchPhaseLocked, constants.BatchPhasePayment, constants.BatchPhaseClosed} {
		if err := env.db.Model(&models.Batch{}).Where("id = ?", batch.ID).Update("phase", phase).Error; err != nil {
			t.Fatalf("set phase failed: %v", err)
		}
		_, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
		if !errors.Is(err, ErrBatchPhaseInvalid) {
			t.Fatalf("phase %s: want ErrBatchPhaseInvalid got %v", phase, err)
		}
	}
	if got := offerCommitted(t, env.db, offer.ID); got != 0 {
		t.Fatalf("committed want 0 got %d", got)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-empty")

	_, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("want ErrCartEmpty got %v", err)
	}
}

func TestCheckoutShippingIncomplete(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-shipping")
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 2)

	// 清空资料默认值，快递方式缺地址
	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("shipping_address", "").Error; err != nil {
		t.Fatalf("clear address failed: %v", err)
	}
	_, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if !errors.Is(err, ErrShippingIncomplete) {
		t.Fatalf("want ErrShippingIncomplete got %v", err)
	}

	// 请求里补上地址即可成交
	if _, err := env.checkout.Checkout(CheckoutInput{
		UserID:          user.ID,
		BatchID:         batch.ID,
		ShippingAddress: "补充地址 2 号",
	}); err != nil {
		t.Fatalf("checkout with inline address failed: %v", err)
	}

	// 自提不需要地址
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 1)
	if _, err := env.checkout.Checkout(CheckoutInput{
		UserID:         user.ID,
		BatchID:        batch.ID,
		ShippingMethod: constants.ShippingMethodPickup,
	}); err != nil {
		t.Fatalf("pickup checkout failed: %v", err)
	}
}

func TestCheckoutStaleOfferFailsBeforeAnyReserve(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-stale")
	offerA := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)
	offerB := createBatchOffer(t, env.db, batch.ID, 80, 10, 5, 0)
	addCartLine(t, env.db, user.ID, batch.ID, offerA.ID, 3)
	addCartLine(t, env.db, user.ID, batch.ID, offerB.ID, 3)

	if err := env.db.Model(&models.Offer{}).Where("id = ?", offerB.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate offer failed: %v", err)
	}

	_, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if !errors.Is(err, ErrOfferNotAvailable) {
		t.Fatalf("want ErrOfferNotAvailable got %v", err)
	}
	if got := offerCommitted(t, env.db, offerA.ID); got != 0 {
		t.Fatalf("no reservation should happen, committed got %d", got)
	}
}

// flakyUserRepository 前 failures 次查询返回瞬时错误，之后透传
type flakyUserRepository struct {
	repository.UserRepository
	failures int
	calls    int
}

func (r *flakyUserRepository) GetByID(id uint) (*models.User, error) {
	r.calls++
	if r.calls <= r.failures {
		return nil, errors.New("database is locked")
	}
	return r.UserRepository.GetByID(id)
}

func newFlakyCheckout(t *testing.T, db *gorm.DB, failures int) (*CheckoutService, *flakyUserRepository) {
	t.Helper()
	flaky := &flakyUserRepository{UserRepository: repository.NewUserRepository(db), failures: failures}
	offerRepo := repository.NewOfferRepository(db)
	queueClient, _ := queue.NewClient(nil)
	checkout := NewCheckoutService(
		repository.NewCartRepository(db),
		offerRepo,
		repository.NewOrderRepository(db),
		repository.NewBatchRepository(db),
		flaky,
		NewCapacityService(offerRepo),
		queueClient,
	)
	return checkout, flaky
}

func TestCheckoutTransientFaultRetriedOnce(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-retry-ok")
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 3)

	checkout, flaky := newFlakyCheckout(t, env.db, 1)
	order, err := checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if err != nil {
		t.Fatalf("checkout after single transient fault failed: %v", err)
	}
	if flaky.calls != 2 {
		t.Fatalf("attempts want 2 got %d", flaky.calls)
	}
	if got := offerCommitted(t, env.db, offer.ID); got != 3 {
		t.Fatalf("committed want 3 got %d", got)
	}
	if order == nil || order.ID == 0 {
		t.Fatalf("order should be created, got %+v", order)
	}
}

func TestCheckoutTransientFaultGivesUpAfterRetry(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-retry-fail")
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 3)

	checkout, flaky := newFlakyCheckout(t, env.db, 10)
	_, err := checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("want ErrCheckoutFailed got %v", err)
	}
	// 恰好重试一次，之后放弃
	if flaky.calls != 2 {
		t.Fatalf("attempts want 2 got %d", flaky.calls)
	}

	// 失败结算零副作用
	if got := offerCommitted(t, env.db, offer.ID); got != 0 {
		t.Fatalf("committed must stay 0, got %d", got)
	}
	if got := cartLineCount(t, env.db, user.ID, batch.ID); got != 1 {
		t.Fatalf("cart should be intact, got %d lines", got)
	}
	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("no order should exist, got %d", orderCount)
	}
}

// 业务性失败不触发重试
func TestCheckoutBusinessErrorNotRetried(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-no-retry")
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 1, 8)
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 5)

	checkout, flaky := newFlakyCheckout(t, env.db, 0)
	_, err := checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded got %v", err)
	}
	if flaky.calls != 1 {
		t.Fatalf("attempts want 1 got %d", flaky.calls)
	}
}

func TestCancelOrderReleasesCapacity(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-cancel")
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 6)

	order, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if got := offerCommitted(t, env.db, offer.ID); got != 6 {
		t.Fatalf("committed want 6 got %d", got)
	}

	canceled, err := env.orders.CancelOrder(order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled {
		t.Fatalf("status want canceled got %s", canceled.Status)
	}
	if got := offerCommitted(t, env.db, offer.ID); got != 0 {
		t.Fatalf("committed should return to 0, got %d", got)
	}

	// 重复取消不能二次回补
	if _, err := env.orders.CancelOrder(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("want ErrOrderStatusInvalid got %v", err)
	}
	if got := offerCommitted(t, env.db, offer.ID); got != 0 {
		t.Fatalf("committed must stay 0, got %d", got)
	}
}

func TestOrderStatusStepping(t *testing.T) {
	env := setupCheckoutTest(t)
	user := createCheckoutUser(t, env.db)
	batch := createFillingBatch(t, env.db, "batch-status")
	offer := createBatchOffer(t, env.db, batch.ID, 100, 10, 5, 0)
	addCartLine(t, env.db, user.ID, batch.ID, offer.ID, 2)

	order, err := env.checkout.Checkout(CheckoutInput{UserID: user.ID, BatchID: batch.ID})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// 不能跳步
	if _, err := env.orders.UpdateOrderStatus(order.ID, constants.OrderStatusShipped); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("want ErrOrderStatusInvalid got %v", err)
	}

	for _, status := range []string{constants.OrderStatusPaid, constants.OrderStatusShipped, constants.OrderStatusCompleted} {
		updated, err := env.orders.UpdateOrderStatus(order.ID, status)
		if err != nil {
			t.Fatalf("step to %s failed: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("status want %s got %s", status, updated.Status)
		}
	}

	// 终态不可取消
	if _, err := env.orders.CancelOrder(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("want ErrOrderStatusInvalid got %v", err)
	}
}
