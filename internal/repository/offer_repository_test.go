package repository

import (
	"sync"
	"testing"

	"github.com/vialpool-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOfferRepositoryTest(t *testing.T) (*GormOfferRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Batch{}, &models.Product{}, &models.Offer{}); err != nil {
		t.Fatalf("migrate offer tables failed: %v", err)
	}
	return NewOfferRepository(db), db
}

func createOfferFixture(t *testing.T, db *gorm.DB, boxSize, boxes, committed int) *models.Offer {
	t.Helper()
	batch := &models.Batch{
		Slug:      "test-batch",
		TitleJSON: models.JSON{"zh-CN": "测试批次"},
		Phase:     "open",
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	product := &models.Product{
		Slug:      batch.Slug + "-product",
		TitleJSON: models.JSON{"zh-CN": "测试药品"},
		IsActive:  true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	offer := &models.Offer{
		BatchID:        batch.ID,
		ProductID:      product.ID,
		PricePerVial:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
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

func reloadOffer(t *testing.T, db *gorm.DB, id uint) *models.Offer {
	t.Helper()
	var got models.Offer
	if err := db.First(&got, id).Error; err != nil {
		t.Fatalf("reload offer failed: %v", err)
	}
	return &got
}

func TestReserveReleaseCommittedLifecycle(t *testing.T) {
	repo, db := setupOfferRepositoryTest(t)
	offer := createOfferFixture(t, db, 10, 5, 0)

	affected, err := repo.ReserveCommitted(offer.ID, 45)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("reserve affected want 1 got %d", affected)
	}

	// 剩余 5 支，再占 6 支必须失败
	affected, err = repo.ReserveCommitted(offer.ID, 6)
	if err != nil {
		t.Fatalf("reserve over capacity errored: %v", err)
	}
	if affected != 0 {
		t.Fatalf("reserve over capacity affected want 0 got %d", affected)
	}

	affected, err = repo.ReserveCommitted(offer.ID, 5)
	if err != nil {
		t.Fatalf("reserve remainder failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("reserve remainder affected want 1 got %d", affected)
	}

	affected, err = repo.ReleaseCommitted(offer.ID, 20)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("release affected want 1 got %d", affected)
	}

	got := reloadOffer(t, db, offer.ID)
	if got.CommittedUnits != 30 {
		t.Fatalf("committed want 30 got %d", got.CommittedUnits)
	}
}

func TestReleaseCommittedNeverBelowZero(t *testing.T) {
	repo, db := setupOfferRepositoryTest(t)
	offer := createOfferFixture(t, db, 10, 2, 3)

	affected, err := repo.ReleaseCommitted(offer.ID, 4)
	if err != nil {
		t.Fatalf("release errored: %v", err)
	}
	if affected != 0 {
		t.Fatalf("release below zero affected want 0 got %d", affected)
	}

	got := reloadOffer(t, db, offer.ID)
	if got.CommittedUnits != 3 {
		t.Fatalf("committed want 3 got %d", got.CommittedUnits)
	}
}

func TestConcurrentReserveNeverOvercommits(t *testing.T) {
	repo, db := setupOfferRepositoryTest(t)
	// 容量 50 支，45 支已占：并发 8 个各要 4 支，最多只能成功 1 个
	offer := createOfferFixture(t, db, 10, 5, 45)

	const workers = 8
	var wg sync.WaitGroup
	success := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			affected, err := repo.ReserveCommitted(offer.ID, 4)
			if err != nil {
				t.Errorf("concurrent reserve errored: %v", err)
				return
			}
			success <- affected
		}()
	}
	wg.Wait()
	close(success)

	var wins int64
	for affected := range success {
		wins += affected
	}
	if wins != 1 {
		t.Fatalf("concurrent reserve wins want 1 got %d", wins)
	}

	got := reloadOffer(t, db, offer.ID)
	if got.CommittedUnits > got.BoxesAvailable*got.BoxSize {
		t.Fatalf("committed %d exceeds capacity %d", got.CommittedUnits, got.BoxesAvailable*got.BoxSize)
	}
	if got.CommittedUnits != 49 {
		t.Fatalf("committed want 49 got %d", got.CommittedUnits)
	}
}

func TestSetBoxesAvailableRespectsCommitted(t *testing.T) {
	repo, db := setupOfferRepositoryTest(t)
	offer := createOfferFixture(t, db, 10, 5, 35)

	// 已占 35 支，调到 3 盒（30 支）必须被拒绝
	affected, err := repo.SetBoxesAvailable(offer.ID, 3)
	if err != nil {
		t.Fatalf("adjust errored: %v", err)
	}
	if affected != 0 {
		t.Fatalf("adjust below committed affected want 0 got %d", affected)
	}

	affected, err = repo.SetBoxesAvailable(offer.ID, 4)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("adjust affected want 1 got %d", affected)
	}

	got := reloadOffer(t, db, offer.ID)
	if got.BoxesAvailable != 4 {
		t.Fatalf("boxes want 4 got %d", got.BoxesAvailable)
	}
}

func TestBatchUpdatePhaseConditional(t *testing.T) {
	_, db := setupOfferRepositoryTest(t)
	batchRepo := NewBatchRepository(db)
	batch := &models.Batch{
		Slug:      "phase-batch",
		TitleJSON: models.JSON{"zh-CN": "阶段批次"},
		Phase:     "open",
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	affected, err := batchRepo.UpdatePhase(batch.ID, "open", "filling", nil)
	if err != nil {
		t.Fatalf("update phase failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("update phase affected want 1 got %d", affected)
	}

	// 再用旧 fromPhase 推进必须失败
	affected, err = batchRepo.UpdatePhase(batch.ID, "open", "filling", nil)
	if err != nil {
		t.Fatalf("stale update errored: %v", err)
	}
	if affected != 0 {
		t.Fatalf("stale update affected want 0 got %d", affected)
	}
}
