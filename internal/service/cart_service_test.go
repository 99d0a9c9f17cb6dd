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

func setupCartTest(t *testing.T) (*gorm.DB, *CartService) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Batch{}, &models.Product{}, &models.Offer{}, &models.CartItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	svc := NewCartService(
		repository.NewCartRepository(db),
		repository.NewOfferRepository(db),
		repository.NewBatchRepository(db),
	)
	return db, svc
}

func TestAddItemMergesQuantity(t *testing.T) {
	db, svc := setupCartTest(t)
	batch := createFillingBatch(t, db, "cart-merge")
	offer := createBatchOffer(t, db, batch.ID, 100, 10, 5, 0)

	input := UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 3}
	if err := svc.AddItem(input); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	input.Quantity = 2
	if err := svc.AddItem(input); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	lines, err := svc.ListByUser(1, batch.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("lines want 1 got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("quantity want 5 got %d", lines[0].Quantity)
	}
}

func TestSetQuantityZeroDeletesLine(t *testing.T) {
	db, svc := setupCartTest(t)
	batch := createFillingBatch(t, db, "cart-zero")
	offer := createBatchOffer(t, db, batch.ID, 100, 10, 5, 0)

	if err := svc.AddItem(UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 3}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.SetQuantity(UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 0}); err != nil {
		t.Fatalf("set zero failed: %v", err)
	}

	lines, err := svc.ListByUser(1, batch.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("lines want 0 got %d", len(lines))
	}
}

func TestRemoveThenReAddSameOffer(t *testing.T) {
	db, svc := setupCartTest(t)
	batch := createFillingBatch(t, db, "cart-readd")
	offer := createBatchOffer(t, db, batch.ID, 100, 10, 5, 0)

	line := UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 3}
	if err := svc.AddItem(line); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.RemoveItem(1, batch.ID, offer.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	// 删除后重新加入同一报价不得撞唯一索引
	line.Quantity = 2
	if err := svc.AddItem(line); err != nil {
		t.Fatalf("re-add after remove failed: %v", err)
	}

	if err := svc.SetQuantity(UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 0}); err != nil {
		t.Fatalf("set zero failed: %v", err)
	}
	line.Quantity = 4
	if err := svc.AddItem(line); err != nil {
		t.Fatalf("re-add after set zero failed: %v", err)
	}

	lines, err := svc.ListByUser(1, batch.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 4 {
		t.Fatalf("want single line qty 4, got %+v", lines)
	}
}

func TestCartAllowsStagingBeyondRemaining(t *testing.T) {
	db, svc := setupCartTest(t)
	batch := createFillingBatch(t, db, "cart-over")
	// 剩余 5 支，允许先放 20 支进车，结算时再裁决
	offer := createBatchOffer(t, db, batch.ID, 100, 5, 1, 0)

	if err := svc.AddItem(UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 20}); err != nil {
		t.Fatalf("add beyond remaining failed: %v", err)
	}
	if got := offerCommitted(t, db, offer.ID); got != 0 {
		t.Fatalf("cart must not touch committed, got %d", got)
	}
}

func TestCartMutationPhaseGated(t *testing.T) {
	db, svc := setupCartTest(t)
	batch := createFillingBatch(t, db, "cart-phase")
	offer := createBatchOffer(t, db, batch.ID, 100, 10, 5, 0)
	if err := svc.AddItem(UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 2}); err != nil {
		t.Fatalf("add in filling failed: %v", err)
	}

	if err := db.Model(&models.Batch{}).Where("id = ?", batch.ID).Update("phase", constants.BatchPhaseLocked).Error; err != nil {
		t.Fatalf("lock batch failed: %v", err)
	}

	if err := svc.AddItem(UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 1}); !errors.Is(err, ErrBatchPhaseInvalid) {
		t.Fatalf("add: want ErrBatchPhaseInvalid got %v", err)
	}
	if err := svc.SetQuantity(UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offer.ID, Quantity: 9}); !errors.Is(err, ErrBatchPhaseInvalid) {
		t.Fatalf("set: want ErrBatchPhaseInvalid got %v", err)
	}
	if err := svc.RemoveItem(1, batch.ID, offer.ID); !errors.Is(err, ErrBatchPhaseInvalid) {
		t.Fatalf("remove: want ErrBatchPhaseInvalid got %v", err)
	}

	// 锁定期间购物车内容原样保留
	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ? AND batch_id = ?", 1, batch.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("cart lines want 1 got %d", count)
	}
}

func TestListPrunesStaleLines(t *testing.T) {
	db, svc := setupCartTest(t)
	batch := createFillingBatch(t, db, "cart-stale")
	offerA := createBatchOffer(t, db, batch.ID, 100, 10, 5, 0)
	offerB := createBatchOffer(t, db, batch.ID, 80, 10, 5, 0)
	if err := svc.AddItem(UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offerA.ID, Quantity: 2}); err != nil {
		t.Fatalf("add A failed: %v", err)
	}
	if err := svc.AddItem(UpsertCartLineInput{UserID: 1, BatchID: batch.ID, OfferID: offerB.ID, Quantity: 3}); err != nil {
		t.Fatalf("add B failed: %v", err)
	}

	if err := db.Model(&models.Offer{}).Where("id = ?", offerB.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	lines, err := svc.ListByUser(1, batch.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(lines) != 1 || lines[0].OfferID != offerA.ID {
		t.Fatalf("only active line should remain, got %+v", lines)
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ? AND offer_id = ?", 1, offerB.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("stale line should be pruned, got %d", count)
	}
}

func TestAddItemRejectsForeignOffer(t *testing.T) {
	db, svc := setupCartTest(t)
	batchA := createFillingBatch(t, db, "cart-batch-a")
	batchB := createFillingBatch(t, db, "cart-batch-b")
	offerB := createBatchOffer(t, db, batchB.ID, 100, 10, 5, 0)

	err := svc.AddItem(UpsertCartLineInput{UserID: 1, BatchID: batchA.ID, OfferID: offerB.ID, Quantity: 1})
	if !errors.Is(err, ErrOfferNotAvailable) {
		t.Fatalf("want ErrOfferNotAvailable got %v", err)
	}
}
