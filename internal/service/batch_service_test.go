package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vialpool-next/internal/constants"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupBatchTest(t *testing.T) (*gorm.DB, *BatchService) {
	t.Helper()
	dsn := fmt.Sprintf("file:batch_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
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
	svc := NewBatchService(
		repository.NewBatchRepository(db),
		repository.NewOfferRepository(db),
		repository.NewOrderRepository(db),
		repository.NewPhaseAuditLogRepository(db),
	)
	return db, svc
}

func batchPhase(t *testing.T, db *gorm.DB, id uint) string {
	t.Helper()
	var batch models.Batch
	if err := db.First(&batch, id).Error; err != nil {
		t.Fatalf("reload batch failed: %v", err)
	}
	return batch.Phase
}

func TestTransitionPhaseForwardOnly(t *testing.T) {
	db, svc := setupBatchTest(t)
	batch := &models.Batch{Slug: "phase-forward", TitleJSON: models.JSON{"zh-CN": "测试"}}
	if err := svc.Create(batch); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if batch.Phase != constants.BatchPhaseDraft {
		t.Fatalf("new batch must start draft, got %s", batch.Phase)
	}
	actor := PhaseActor{AdminID: 1, Username: "admin"}

	// 不能跳过 open 直接到 filling
	if _, err := svc.TransitionPhase(actor, batch.ID, constants.BatchPhaseFilling); !errors.Is(err, ErrBatchTransitionInvalid) {
		t.Fatalf("skip step: want ErrBatchTransitionInvalid got %v", err)
	}
	// 不能倒退
	if _, err := svc.TransitionPhase(actor, batch.ID, constants.BatchPhaseDraft); !errors.Is(err, ErrBatchTransitionInvalid) {
		t.Fatalf("backward: want ErrBatchTransitionInvalid got %v", err)
	}

	for _, phase := range []string{
		constants.BatchPhaseOpen,
		constants.BatchPhaseFilling,
		constants.BatchPhaseLocked,
		constants.BatchPhasePayment,
		constants.BatchPhaseClosed,
	} {
		updated, err := svc.TransitionPhase(actor, batch.ID, phase)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", phase, err)
		}
		if updated.Phase != phase {
			t.Fatalf("phase want %s got %s", phase, updated.Phase)
		}
	}

	// 终态之后无路可走
	if _, err := svc.TransitionPhase(actor, batch.ID, constants.BatchPhaseOpen); !errors.Is(err, ErrBatchTransitionInvalid) {
		t.Fatalf("closed batch: want ErrBatchTransitionInvalid got %v", err)
	}

	var updated models.Batch
	if err := db.First(&updated, batch.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if updated.OpenedAt == nil || updated.LockedAt == nil || updated.ClosedAt == nil {
		t.Fatalf("phase timestamps should be set: %+v", updated)
	}

	var auditCount int64
	if err := db.Model(&models.PhaseAuditLog{}).Where("batch_id = ? AND source = ?", batch.ID, constants.PhaseChangeSourceTransition).Count(&auditCount).Error; err != nil {
		t.Fatalf("count audit failed: %v", err)
	}
	if auditCount != 5 {
		t.Fatalf("audit rows want 5 got %d", auditCount)
	}
}

func TestOverridePhaseRequiresNote(t *testing.T) {
	db, svc := setupBatchTest(t)
	batch := createFillingBatch(t, db, "phase-override")
	actor := PhaseActor{AdminID: 2, Username: "ops"}

	if _, err := svc.OverridePhase(actor, batch.ID, constants.BatchPhaseOpen, "  "); !errors.Is(err, ErrPhaseNoteRequired) {
		t.Fatalf("blank note: want ErrPhaseNoteRequired got %v", err)
	}
	if _, err := svc.OverridePhase(actor, batch.ID, "archived", "乱填的阶段"); !errors.Is(err, ErrBatchTransitionInvalid) {
		t.Fatalf("bad phase: want ErrBatchTransitionInvalid got %v", err)
	}

	// 覆盖允许倒退
	updated, err := svc.OverridePhase(actor, batch.ID, constants.BatchPhaseOpen, "发现报价配置错误，退回修改")
	if err != nil {
		t.Fatalf("override failed: %v", err)
	}
	if updated.Phase != constants.BatchPhaseOpen {
		t.Fatalf("phase want open got %s", updated.Phase)
	}

	var audit models.PhaseAuditLog
	if err := db.Where("batch_id = ?", batch.ID).First(&audit).Error; err != nil {
		t.Fatalf("load audit failed: %v", err)
	}
	if audit.Source != constants.PhaseChangeSourceOverride || audit.Note == "" {
		t.Fatalf("audit should record override with note: %+v", audit)
	}
	if audit.FromPhase != constants.BatchPhaseFilling || audit.ToPhase != constants.BatchPhaseOpen {
		t.Fatalf("audit phases wrong: %+v", audit)
	}

	// 目标与当前相同时视为幂等，不再写审计
	if _, err := svc.OverridePhase(actor, batch.ID, constants.BatchPhaseOpen, "重复请求"); err != nil {
		t.Fatalf("idempotent override failed: %v", err)
	}
	var count int64
	if err := db.Model(&models.PhaseAuditLog{}).Where("batch_id = ?", batch.ID).Count(&count).Error; err != nil {
		t.Fatalf("count audit failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("audit rows want 1 got %d", count)
	}
}

func TestBatchDeleteRefusedWithActiveOrders(t *testing.T) {
	db, svc := setupBatchTest(t)
	batch := createFillingBatch(t, db, "phase-delete")
	offer := createBatchOffer(t, db, batch.ID, 100, 10, 5, 2)
	order := &models.Order{
		OrderNo:        fmt.Sprintf("VP%d", time.Now().UnixNano()),
		UserID:         1,
		BatchID:        batch.ID,
		Status:         constants.OrderStatusPendingPayment,
		ShippingMethod: constants.ShippingMethodPickup,
		ShippingName:   "买家",
		ShippingPhone:  "13800000000",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.Delete(batch.ID); !errors.Is(err, ErrBatchHasOrders) {
		t.Fatalf("want ErrBatchHasOrders got %v", err)
	}

	// 订单取消后删除放行，连带清掉报价与购物车
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", constants.OrderStatusCanceled).Error; err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}
	if err := db.Create(&models.CartItem{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 1}).Error; err != nil {
		t.Fatalf("create cart line failed: %v", err)
	}
	if err := svc.Delete(batch.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var offers, carts int64
	if err := db.Model(&models.Offer{}).Where("batch_id = ?", batch.ID).Count(&offers).Error; err != nil {
		t.Fatalf("count offers failed: %v", err)
	}
	if err := db.Model(&models.CartItem{}).Where("batch_id = ?", batch.ID).Count(&carts).Error; err != nil {
		t.Fatalf("count carts failed: %v", err)
	}
	if offers != 0 || carts != 0 {
		t.Fatalf("batch children should be removed, offers=%d carts=%d", offers, carts)
	}
}

func TestBuyerBatchListHidesDraftAndClosed(t *testing.T) {
	db, svc := setupBatchTest(t)
	phases := []string{
		constants.BatchPhaseDraft,
		constants.BatchPhaseOpen,
		constants.BatchPhaseFilling,
		constants.BatchPhaseClosed,
	}
	for i, phase := range phases {
		b := &models.Batch{Slug: fmt.Sprintf("vis-%d", i), TitleJSON: models.JSON{"zh-CN": "批次"}, Phase: phase}
		if err := db.Create(b).Error; err != nil {
			t.Fatalf("create batch failed: %v", err)
		}
	}

	visible, total, err := svc.ListOpenForBuyers(1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("visible batches want 2 got %d", len(visible))
	}
	// total 只统计买家可见批次
	if total != 2 {
		t.Fatalf("total want 2 got %d", total)
	}
	for _, b := range visible {
		if b.Phase == constants.BatchPhaseDraft || b.Phase == constants.BatchPhaseClosed {
			t.Fatalf("draft/closed leaked: %s", b.Phase)
		}
	}
}

func TestBuyerBatchListPaginatesVisibleOnly(t *testing.T) {
	db, svc := setupBatchTest(t)
	// 隐藏批次与可见批次交错，分页不能因为过滤而缺页
	for i := 0; i < 3; i++ {
		hidden := &models.Batch{Slug: fmt.Sprintf("page-draft-%d", i), TitleJSON: models.JSON{"zh-CN": "批次"}, Phase: constants.BatchPhaseDraft}
		if err := db.Create(hidden).Error; err != nil {
			t.Fatalf("create draft failed: %v", err)
		}
		open := &models.Batch{Slug: fmt.Sprintf("page-open-%d", i), TitleJSON: models.JSON{"zh-CN": "批次"}, Phase: constants.BatchPhaseOpen}
		if err := db.Create(open).Error; err != nil {
			t.Fatalf("create open failed: %v", err)
		}
	}

	page1, total, err := svc.ListOpenForBuyers(1, 2)
	if err != nil {
		t.Fatalf("page 1 failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("total want 3 got %d", total)
	}
	if len(page1) != 2 {
		t.Fatalf("page 1 want 2 got %d", len(page1))
	}
	page2, _, err := svc.ListOpenForBuyers(2, 2)
	if err != nil {
		t.Fatalf("page 2 failed: %v", err)
	}
	if len(page2) != 1 {
		t.Fatalf("page 2 want 1 got %d", len(page2))
	}
}

func TestFeaturedBatchOrderedFirst(t *testing.T) {
	db, svc := setupBatchTest(t)
	plain := &models.Batch{Slug: "feat-plain", TitleJSON: models.JSON{"zh-CN": "批次"}, Phase: constants.BatchPhaseOpen, SortOrder: 10}
	if err := db.Create(plain).Error; err != nil {
		t.Fatalf("create plain failed: %v", err)
	}
	featured := &models.Batch{Slug: "feat-hot", TitleJSON: models.JSON{"zh-CN": "批次"}, Phase: constants.BatchPhaseOpen, Featured: true}
	if err := db.Create(featured).Error; err != nil {
		t.Fatalf("create featured failed: %v", err)
	}

	visible, _, err := svc.ListOpenForBuyers(1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(visible) != 2 || visible[0].ID != featured.ID {
		t.Fatalf("featured batch should rank first, got %+v", visible)
	}

	// 更新可以取消推荐
	featured.Featured = false
	if err := svc.Update(featured); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	var reloaded models.Batch
	if err := db.First(&reloaded, featured.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Featured {
		t.Fatalf("featured should be cleared")
	}
}
