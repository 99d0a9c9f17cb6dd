package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCapacityTest(t *testing.T) (*gorm.DB, *CapacityService) {
	t.Helper()
	dsn := fmt.Sprintf("file:capacity_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Batch{}, &models.Product{}, &models.Offer{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db, NewCapacityService(repository.NewOfferRepository(db))
}

func TestCapacityReserveAndRemaining(t *testing.T) {
	db, svc := setupCapacityTest(t)
	batch := createFillingBatch(t, db, "capacity-reserve")
	// 容量 30 支
	offer := createBatchOffer(t, db, batch.ID, 100, 10, 3, 0)

	remaining, err := svc.Remaining(offer.ID)
	if err != nil {
		t.Fatalf("remaining failed: %v", err)
	}
	if remaining != 30 {
		t.Fatalf("remaining want 30 got %d", remaining)
	}

	if err := svc.Reserve(offer.ID, 25); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if remaining, _ = svc.Remaining(offer.ID); remaining != 5 {
		t.Fatalf("remaining want 5 got %d", remaining)
	}

	// 超出剩余量整体拒绝，不做部分占用
	if err := svc.Reserve(offer.ID, 6); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded got %v", err)
	}
	if got := offerCommitted(t, db, offer.ID); got != 25 {
		t.Fatalf("committed want 25 got %d", got)
	}

	if err := svc.Reserve(offer.ID, 5); err != nil {
		t.Fatalf("reserve to full failed: %v", err)
	}
	if remaining, _ = svc.Remaining(offer.ID); remaining != 0 {
		t.Fatalf("remaining want 0 got %d", remaining)
	}
}

func TestCapacityReleaseGuarded(t *testing.T) {
	db, svc := setupCapacityTest(t)
	batch := createFillingBatch(t, db, "capacity-release")
	offer := createBatchOffer(t, db, batch.ID, 100, 10, 3, 10)

	if err := svc.Release(offer.ID, 4); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got := offerCommitted(t, db, offer.ID); got != 6 {
		t.Fatalf("committed want 6 got %d", got)
	}

	// 释放量超过已占用时整体拒绝，不会把 committed 拉成负数
	if err := svc.Release(offer.ID, 7); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("want ErrQuantityInvalid got %v", err)
	}
	if got := offerCommitted(t, db, offer.ID); got != 6 {
		t.Fatalf("committed must stay 6, got %d", got)
	}
}

func TestCapacityReserveInvalidArgs(t *testing.T) {
	_, svc := setupCapacityTest(t)
	if err := svc.Reserve(0, 1); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("want ErrQuantityInvalid got %v", err)
	}
	if err := svc.Reserve(1, 0); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("want ErrQuantityInvalid got %v", err)
	}
	if err := svc.Release(1, -1); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("want ErrQuantityInvalid got %v", err)
	}
}
